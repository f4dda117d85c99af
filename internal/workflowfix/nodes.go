package workflowfix

import (
	"strconv"

	"gopkg.in/yaml.v3"
)

const (
	stringTagConstant  = "!!str"
	integerTagConstant = "!!int"
	booleanTagConstant = "!!bool"
	mappingTagConstant = "!!map"
)

type keyValue struct {
	key   string
	value *yaml.Node
}

type jobEntry struct {
	name string
	node *yaml.Node
}

func mappingValue(mapping *yaml.Node, key string) *yaml.Node {
	if mapping == nil || mapping.Kind != yaml.MappingNode {
		return nil
	}
	for index := 0; index+1 < len(mapping.Content); index += 2 {
		if mapping.Content[index].Value == key {
			return mapping.Content[index+1]
		}
	}
	return nil
}

func hasKey(mapping *yaml.Node, key string) bool {
	return mappingValue(mapping, key) != nil
}

func appendMappingValue(mapping *yaml.Node, key string, value *yaml.Node) {
	mapping.Content = append(mapping.Content, stringNode(key), value)
}

func scalarString(mapping *yaml.Node, key string) string {
	value := mappingValue(mapping, key)
	if value == nil || value.Kind != yaml.ScalarNode {
		return ""
	}
	return value.Value
}

func stringNode(value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: stringTagConstant, Value: value}
}

func integerNode(value int) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: integerTagConstant, Value: strconv.Itoa(value)}
}

func booleanNode(value bool) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: booleanTagConstant, Value: strconv.FormatBool(value)}
}

func mappingNode(pairs ...keyValue) *yaml.Node {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: mappingTagConstant}
	for _, pair := range pairs {
		appendMappingValue(node, pair.key, pair.value)
	}
	return node
}

// jobs returns the mapping-valued entries of the top-level jobs section in document order.
func (document *Document) jobs() []jobEntry {
	jobsNode := mappingValue(document.root, jobsKeyConstant)
	if jobsNode == nil || jobsNode.Kind != yaml.MappingNode {
		return nil
	}
	entries := make([]jobEntry, 0, len(jobsNode.Content)/2)
	for index := 0; index+1 < len(jobsNode.Content); index += 2 {
		jobNode := jobsNode.Content[index+1]
		if jobNode.Kind != yaml.MappingNode {
			continue
		}
		entries = append(entries, jobEntry{name: jobsNode.Content[index].Value, node: jobNode})
	}
	return entries
}

func jobSteps(job *yaml.Node) *yaml.Node {
	steps := mappingValue(job, stepsKeyConstant)
	if steps == nil || steps.Kind != yaml.SequenceNode {
		return nil
	}
	return steps
}
