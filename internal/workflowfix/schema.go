package workflowfix

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

const (
	rootFieldPlaceholderConstant = "(root)"
	schemaViolationTemplate      = "%s: %s"
	schemaViolationSeparator     = "; "
	schemaErrorTemplateConstant  = "workflow %s does not match the expected structure: %s"
	schemaLoadErrorTemplate      = "unable to load workflow schema: %w"
	schemaDecodeErrorTemplate    = "unable to decode workflow %s: %w"
	mergeKeyTagConstant          = "!!merge"
	nullTagConstant              = "!!null"
)

//go:embed schema/workflow.schema.json
var workflowSchema []byte

// SchemaViolationError lists the structural problems found in a workflow document.
type SchemaViolationError struct {
	Path       string
	Violations []string
}

// Error describes the violations.
func (violationError SchemaViolationError) Error() string {
	return fmt.Sprintf(schemaErrorTemplateConstant, violationError.Path, strings.Join(violationError.Violations, schemaViolationSeparator))
}

func validateStructure(path string, root *yaml.Node) error {
	value, conversionError := nodeValue(root)
	if conversionError != nil {
		return fmt.Errorf(schemaDecodeErrorTemplate, path, conversionError)
	}

	result, validationError := gojsonschema.Validate(gojsonschema.NewBytesLoader(workflowSchema), gojsonschema.NewGoLoader(value))
	if validationError != nil {
		return fmt.Errorf(schemaLoadErrorTemplate, validationError)
	}
	if result.Valid() {
		return nil
	}

	violations := make([]string, 0, len(result.Errors()))
	for _, resultError := range result.Errors() {
		field := resultError.Field()
		if len(field) == 0 {
			field = rootFieldPlaceholderConstant
		}
		violations = append(violations, fmt.Sprintf(schemaViolationTemplate, field, resultError.Description()))
	}
	return SchemaViolationError{Path: path, Violations: violations}
}

// nodeValue converts a node tree into JSON-compatible values keyed by the literal mapping keys.
func nodeValue(node *yaml.Node) (any, error) {
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return nil, nil
		}
		return nodeValue(node.Content[0])
	case yaml.AliasNode:
		return nodeValue(node.Alias)
	case yaml.MappingNode:
		mapping := make(map[string]any, len(node.Content)/2)
		for index := 0; index+1 < len(node.Content); index += 2 {
			keyNode := node.Content[index]
			if keyNode.Tag == mergeKeyTagConstant {
				continue
			}
			value, valueError := nodeValue(node.Content[index+1])
			if valueError != nil {
				return nil, valueError
			}
			mapping[keyNode.Value] = value
		}
		return mapping, nil
	case yaml.SequenceNode:
		items := make([]any, 0, len(node.Content))
		for _, itemNode := range node.Content {
			value, valueError := nodeValue(itemNode)
			if valueError != nil {
				return nil, valueError
			}
			items = append(items, value)
		}
		return items, nil
	default:
		if node.ShortTag() == nullTagConstant {
			return nil, nil
		}
		var scalar any
		if decodeError := node.Decode(&scalar); decodeError != nil {
			return nil, decodeError
		}
		return scalar, nil
	}
}
