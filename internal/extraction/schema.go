package extraction

import "github.com/santhosh-tekuri/jsonschema/v5"

// receiptSchemaJSON constrains the shape of the model's answer without
// requiring any field: an absent or null field passes through as a zero
// value for the user to fill in during review, but a present field with the
// wrong type means the model ignored its instructions.
const receiptSchemaJSON = `{
  "type": "object",
  "properties": {
    "date":        {"type": ["string", "null"]},
    "amount":      {"type": ["number", "string", "null"]},
    "payee":       {"type": ["string", "null"]},
    "description": {"type": ["string", "null"]},
    "purpose":     {"type": ["string", "null"]}
  }
}`

var receiptSchema = jsonschema.MustCompileString("receipt.json", receiptSchemaJSON)
