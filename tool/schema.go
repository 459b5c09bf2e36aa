/*
Copyright 2026 Octoforge Authors
SPDX-License-Identifier: Apache-2.0
*/

package tool

import "github.com/invopop/jsonschema"

// reflector carries the defaults we need for tool argument schemas:
// required fields come from jsonschema tags and the struct is expanded
// in place so providers receive a plain object schema.
var reflector = jsonschema.Reflector{
	RequiredFromJSONSchemaTags: true,
	ExpandedStruct:             true,
	AllowAdditionalProperties:  true,
	DoNotReference:             true,
}

// schemaFor reflects the argument struct T into a JSON schema.
func schemaFor[T any]() *jsonschema.Schema {
	var zero T
	return reflector.Reflect(&zero)
}
