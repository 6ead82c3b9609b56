package main

import (
	"github.com/sagarc03/realm/schema"
)

// Frog is the object class managed by the frogs commands.
type Frog struct {
	Name    string  `realm:"name,primarykey" json:"name" yaml:"name"`
	Age     int     `json:"age" yaml:"age"`
	Species *string `json:"species,omitempty" yaml:"species,omitempty"`
	Owner   string  `json:"owner,omitempty" yaml:"owner,omitempty"`
}

func models() []schema.Type {
	return []schema.Type{schema.MustFor[Frog]()}
}
