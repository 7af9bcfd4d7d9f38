package testutil

// TestPipelineYAML is a small pipeline definition using built-in node types:
// a generated test pattern, gray conversion and a threshold.
const TestPipelineYAML = `name: test-pipeline
nodes:
  - name: pattern
    type: Sources/Test pattern
    properties:
      Width: 32
      Height: 16
  - name: gray
    type: Conversion/Gray
  - name: binary
    type: Filters/Threshold
    properties:
      Threshold: 100
      Method: Binary inverted
links:
  - from: pattern/output
    to: gray/source
  - from: gray/output
    to: binary/source
`

// TestPipelineJSON is the JSON form of TestPipelineYAML.
const TestPipelineJSON = `{
  "name": "test-pipeline",
  "nodes": [
    {"name": "pattern", "type": "Sources/Test pattern", "properties": {"Width": 32, "Height": 16}},
    {"name": "gray", "type": "Conversion/Gray"},
    {"name": "binary", "type": "Filters/Threshold", "properties": {"Threshold": 100, "Method": "Binary inverted"}}
  ],
  "links": [
    {"from": "pattern/output", "to": "gray/source"},
    {"from": "gray/output", "to": "binary/source"}
  ]
}`
