package compose

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"

	"harbormaster/internal/constants"
	"harbormaster/internal/errors"
	"harbormaster/internal/types"

	"gopkg.in/yaml.v3"
)

// Document is a parsed compose file held as a yaml.Node tree so that
// rewrites keep every entry in its original form: a string port entry is
// written back as a string, a mapping entry as a mapping.
type Document struct {
	path string
	root yaml.Node
}

// LoadDocument reads and parses a compose file from disk.
func LoadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrFileRead, "failed to read compose file", err)
	}

	doc := &Document{path: path}
	if err := yaml.Unmarshal(data, &doc.root); err != nil {
		return nil, errors.ComposeParseError(path, err)
	}

	return doc, nil
}

// Path returns the on-disk location of the document.
func (d *Document) Path() string {
	return d.path
}

// Save serializes the document back to its original path.
func (d *Document) Save() error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&d.root); err != nil {
		return errors.Wrap(errors.ErrFileWrite, "failed to serialize compose file", err)
	}
	if err := enc.Close(); err != nil {
		return errors.Wrap(errors.ErrFileWrite, "failed to serialize compose file", err)
	}

	if err := os.WriteFile(d.path, buf.Bytes(), constants.FilePermissions); err != nil {
		return errors.Wrap(errors.ErrFileWrite, "failed to write compose file", err)
	}
	return nil
}

// Ports returns every declared port mapping in the document. Entries whose
// container port is not numeric are dropped; they cannot collide with
// anything we can reason about.
func (d *Document) Ports() []types.PortMapping {
	var out []types.PortMapping

	services := d.servicesNode()
	if services == nil {
		return out
	}

	for i := 0; i+1 < len(services.Content); i += 2 {
		serviceName := services.Content[i].Value
		service := services.Content[i+1]
		if service.Kind != yaml.MappingNode {
			continue
		}

		portsNode := mappingValue(service, "ports")
		if portsNode == nil || portsNode.Kind != yaml.SequenceNode {
			continue
		}

		for _, entry := range portsNode.Content {
			if mapping, ok := parsePortNode(serviceName, entry); ok {
				out = append(out, mapping)
			}
		}
	}

	return out
}

// ApplyPortUpdates rewrites the host port of every entry matched by an
// update, in memory. Each update must match exactly one existing entry,
// keyed by service, container port, and protocol.
func (d *Document) ApplyPortUpdates(updates []types.PortUpdate) error {
	services := d.servicesNode()
	if services == nil {
		return errors.NewWithDetails(errors.ErrComposeParse, "compose file has no services section", d.path)
	}

	for _, update := range updates {
		if err := d.applyPortUpdate(services, update); err != nil {
			return err
		}
	}
	return nil
}

func (d *Document) applyPortUpdate(services *yaml.Node, update types.PortUpdate) error {
	protocol := normalizeProtocol(update.Protocol)

	for i := 0; i+1 < len(services.Content); i += 2 {
		if services.Content[i].Value != update.Service {
			continue
		}
		service := services.Content[i+1]
		if service.Kind != yaml.MappingNode {
			break
		}

		portsNode := mappingValue(service, "ports")
		if portsNode == nil || portsNode.Kind != yaml.SequenceNode {
			break
		}

		for _, entry := range portsNode.Content {
			mapping, ok := parsePortNode(update.Service, entry)
			if !ok {
				continue
			}
			if mapping.ContainerPort != update.ContainerPort || mapping.Protocol != protocol {
				continue
			}
			rewritePortNode(entry, update.HostPort)
			return nil
		}
	}

	return errors.ValidationFailed("port_update",
		fmt.Sprintf("%s:%d/%s", update.Service, update.ContainerPort, protocol),
		"no matching port entry in compose file")
}

// servicesNode returns the top-level services mapping, or nil.
func (d *Document) servicesNode() *yaml.Node {
	if d.root.Kind != yaml.DocumentNode || len(d.root.Content) == 0 {
		return nil
	}
	top := d.root.Content[0]
	if top.Kind != yaml.MappingNode {
		return nil
	}
	services := mappingValue(top, "services")
	if services == nil || services.Kind != yaml.MappingNode {
		return nil
	}
	return services
}

// mappingValue returns the value node for a key within a mapping node.
func mappingValue(node *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}

// parsePortNode normalizes one ports entry, either the string form
// "[ip:][host:]container[/proto]" or the long form with target/published.
func parsePortNode(service string, node *yaml.Node) (types.PortMapping, bool) {
	switch node.Kind {
	case yaml.ScalarNode:
		return parsePortString(service, node.Value)
	case yaml.MappingNode:
		return parsePortMappingNode(service, node)
	default:
		return types.PortMapping{}, false
	}
}

func parsePortString(service, value string) (types.PortMapping, bool) {
	spec := value
	protocol := "tcp"
	if idx := strings.IndexByte(spec, '/'); idx >= 0 {
		protocol = normalizeProtocol(spec[idx+1:])
		spec = spec[:idx]
	}

	parts := strings.Split(spec, ":")

	var hostPart, containerPart string
	switch len(parts) {
	case 1:
		containerPart = parts[0]
	case 2:
		hostPart, containerPart = parts[0], parts[1]
	case 3:
		// ip:host:container
		hostPart, containerPart = parts[1], parts[2]
	default:
		return types.PortMapping{}, false
	}

	containerPort, err := strconv.Atoi(strings.TrimSpace(containerPart))
	if err != nil {
		return types.PortMapping{}, false
	}

	mapping := types.PortMapping{
		Service:       service,
		ContainerPort: containerPort,
		Protocol:      protocol,
	}
	// A non-numeric host part (a range or an unexpanded variable) leaves
	// the host port unknown rather than dropping the entry.
	if hostPort, err := strconv.Atoi(strings.TrimSpace(hostPart)); err == nil {
		mapping.HostPort = hostPort
	}
	return mapping, true
}

func parsePortMappingNode(service string, node *yaml.Node) (types.PortMapping, bool) {
	target := mappingValue(node, "target")
	if target == nil {
		return types.PortMapping{}, false
	}
	containerPort, err := strconv.Atoi(target.Value)
	if err != nil {
		return types.PortMapping{}, false
	}

	mapping := types.PortMapping{
		Service:       service,
		ContainerPort: containerPort,
		Protocol:      "tcp",
	}
	if protocol := mappingValue(node, "protocol"); protocol != nil {
		mapping.Protocol = normalizeProtocol(protocol.Value)
	}
	if published := mappingValue(node, "published"); published != nil {
		if hostPort, err := strconv.Atoi(published.Value); err == nil {
			mapping.HostPort = hostPort
		}
	}
	return mapping, true
}

// rewritePortNode sets a new host port on an entry, keeping its form.
func rewritePortNode(node *yaml.Node, hostPort int) {
	switch node.Kind {
	case yaml.ScalarNode:
		rewritePortString(node, hostPort)
	case yaml.MappingNode:
		if published := mappingValue(node, "published"); published != nil {
			published.Tag = "!!int"
			published.Value = strconv.Itoa(hostPort)
			published.Style = 0
			return
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: "published"},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(hostPort)},
		)
	}
}

func rewritePortString(node *yaml.Node, hostPort int) {
	spec := node.Value
	suffix := ""
	if idx := strings.IndexByte(spec, '/'); idx >= 0 {
		suffix = spec[idx:]
		spec = spec[:idx]
	}

	parts := strings.Split(spec, ":")
	var rebuilt string
	switch len(parts) {
	case 1:
		rebuilt = fmt.Sprintf("%d:%s", hostPort, parts[0])
	case 2:
		rebuilt = fmt.Sprintf("%d:%s", hostPort, parts[1])
	case 3:
		rebuilt = fmt.Sprintf("%s:%d:%s", parts[0], hostPort, parts[2])
	default:
		return
	}

	wasString := node.Tag == "" || node.Tag == "!!str"
	style := node.Style

	node.Kind = yaml.ScalarNode
	node.Tag = "!!str"
	node.Value = rebuilt + suffix
	if wasString {
		node.Style = style
	} else {
		// A bare container port parsed as an int; the rebuilt value needs
		// quoting to stay unambiguous.
		node.Style = yaml.DoubleQuotedStyle
	}
}

func normalizeProtocol(protocol string) string {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	if protocol == "" {
		return "tcp"
	}
	return protocol
}
