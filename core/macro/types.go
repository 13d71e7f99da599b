package macro

import "strings"

// Type tags a value flowing through a pipeline.
type Type int

const (
	// Untyped is carried by spans whose tag isn't a known type name. It has no
	// default converter.
	Untyped Type = iota
	Number
	Time
	String
	Boolean
	Date
)

var typeNames = map[Type]string{
	Untyped: "Untyped",
	Number:  "Number",
	Time:    "Time",
	String:  "String",
	Boolean: "Boolean",
	Date:    "Date",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "Untyped"
}

// Types lists the five taggable types in declaration order.
func Types() []Type {
	return []Type{Number, Time, String, Boolean, Date}
}

// ParseType resolves a type name case-insensitively.
func ParseType(name string) (Type, bool) {
	for _, t := range Types() {
		if strings.EqualFold(typeNames[t], name) {
			return t, true
		}
	}
	return Untyped, false
}

// Value is a typed string.
type Value struct {
	Type Type
	Text string
}
