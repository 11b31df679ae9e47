// Package schemas embeds the JSON schemas agent output is validated against.
package schemas

import _ "embed"

// VoteSchemaJSON describes the JSON object an evaluator must reply with.
//
//go:embed vote.schema.json
var VoteSchemaJSON string

// CandidateSchemaJSON describes the JSON object a producer must reply with.
//
//go:embed candidate.schema.json
var CandidateSchemaJSON string
