// Package configs provides embedded documents used by shipcheck at runtime.
//
// Files:
//   - eas.schema.json: structural schema for the build-profile document,
//     checked before profiles are decoded (internal/resolve).
//   - shipcheck.example.yaml: template written by `shipcheck config init`.
//
// To modify them, edit the files in this directory and rebuild.
package configs

import _ "embed"

// BuildProfileSchema is the JSON schema of the build-profile document.
//
//go:embed eas.schema.json
var BuildProfileSchema string

// BuildProfileSchemaURL is the resource name the schema is compiled under.
const BuildProfileSchemaURL = "shipcheck://configs/eas.schema.json"

// ProjectConfigTemplate is the template for .shipcheck.yaml.
//
//go:embed shipcheck.example.yaml
var ProjectConfigTemplate string
