package shader

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Carmen-Shannon/eduren/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

var (
	structBlockRegex = regexp.MustCompile(`struct\s+(\w+)\s*\{([^}]*)\}`)
	locationRegex    = regexp.MustCompile(`@location\((\d+)\)`)
	builtinRegex     = regexp.MustCompile(`@builtin\(\w+\)`)

	// fieldRegex captures name and type after any attributes. The type is greedy so array<T, N> survives.
	fieldRegex = regexp.MustCompile(`(?:@\w+\([^)]*\)\s*)*(\w+)\s*:\s*(.+)`)

	vertexEntryRegex   = regexp.MustCompile(`(?s)@vertex\b.*?\bfn\s+(\w+)`)
	fragmentEntryRegex = regexp.MustCompile(`(?s)@fragment\b.*?\bfn\s+(\w+)`)

	// bindingRegex captures group, binding, address space, name and type of
	// "@group(0) @binding(0) var<uniform> cube: CubeUniform;". Handle types have no address space.
	bindingRegex = regexp.MustCompile(`@group\((\d+)\)\s*@binding\((\d+)\)\s*var(?:<([^>]*)>)?\s+(\w+)\s*:\s*([^;]+?)\s*;`)
)

type parsedField struct {
	name     string
	typeName string
	// location is -1 when the field has no @location.
	location  int
	isBuiltin bool
}

type parsedStruct struct {
	name   string
	fields []parsedField
}

// bindingDecl is one @group/@binding variable.
type bindingDecl struct {
	group        int
	binding      int
	addressSpace string
	name         string
	typeName     string
}

// layoutEntry turns a buffer declaration into a layout entry sized from the module's structs.
func (d bindingDecl) layoutEntry(structs map[string]wgslTypeLayout) (wgpu.BindGroupLayoutEntry, error) {
	entry := wgpu.BindGroupLayoutEntry{Binding: uint32(d.binding)}
	switch {
	case d.addressSpace == "uniform":
		entry.Buffer.Type = wgpu.BufferBindingTypeUniform
	case strings.HasPrefix(d.addressSpace, "storage"):
		entry.Buffer.Type = wgpu.BufferBindingTypeReadOnlyStorage
		if strings.Contains(d.addressSpace, "read_write") {
			entry.Buffer.Type = wgpu.BufferBindingTypeStorage
		}
	default:
		return entry, fmt.Errorf("shader: binding %s at @group(%d) @binding(%d) has type %s, only buffers are supported",
			d.name, d.group, d.binding, d.typeName)
	}

	layout, ok := resolveTypeLayout(d.typeName, structs)
	if !ok || layout.size == 0 {
		return entry, fmt.Errorf("shader: cannot size %s of type %s", d.name, d.typeName)
	}
	entry.Buffer.MinBindingSize = layout.size
	return entry, nil
}

func parseEntryPoint(source string, stage pipeline.Stage) string {
	re := vertexEntryRegex
	if stage == pipeline.StageFragment {
		re = fragmentEntryRegex
	}
	if m := re.FindStringSubmatch(source); m != nil {
		return m[1]
	}
	return ""
}

func parseStructBlocks(source string) []parsedStruct {
	matches := structBlockRegex.FindAllStringSubmatch(source, -1)
	structs := make([]parsedStruct, 0, len(matches))
	for _, m := range matches {
		structs = append(structs, parsedStruct{name: m[1], fields: parseStructFields(m[2])})
	}
	return structs
}

func parseStructFields(body string) []parsedField {
	parts := splitAtTopLevelCommas(body)
	fields := make([]parsedField, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		fm := fieldRegex.FindStringSubmatch(part)
		if fm == nil {
			continue
		}

		f := parsedField{
			name:      fm[1],
			typeName:  strings.TrimSpace(fm[2]),
			location:  -1,
			isBuiltin: builtinRegex.MatchString(part),
		}
		if lm := locationRegex.FindStringSubmatch(part); lm != nil {
			if loc, err := strconv.Atoi(lm[1]); err == nil {
				f.location = loc
			}
		}
		fields = append(fields, f)
	}
	return fields
}

func parseBindings(source string) ([]bindingDecl, error) {
	var decls []bindingDecl
	seen := make(map[[2]int]string)
	for _, m := range bindingRegex.FindAllStringSubmatch(source, -1) {
		group, _ := strconv.Atoi(m[1])
		binding, _ := strconv.Atoi(m[2])
		d := bindingDecl{
			group:        group,
			binding:      binding,
			addressSpace: strings.TrimSpace(m[3]),
			name:         m[4],
			typeName:     strings.TrimSpace(m[5]),
		}
		if prev, dup := seen[[2]int{group, binding}]; dup {
			return nil, fmt.Errorf("shader: %s and %s share @group(%d) @binding(%d)", prev, d.name, group, binding)
		}
		seen[[2]int{group, binding}] = d.name
		decls = append(decls, d)
	}
	return decls, nil
}

// isVertexInputStruct reports whether every field is a @location and none is a @builtin,
// which separates vertex inputs from vertex outputs carrying @builtin(position).
func isVertexInputStruct(ps parsedStruct) bool {
	hasLocation := false
	for _, f := range ps.fields {
		if f.isBuiltin {
			return false
		}
		if f.location >= 0 {
			hasLocation = true
		}
	}
	return hasLocation
}

// buildVertexBufferLayout packs the fields of a vertex input struct tightly in declaration order.
func buildVertexBufferLayout(ps parsedStruct) (wgpu.VertexBufferLayout, error) {
	attrs := make([]wgpu.VertexAttribute, 0, len(ps.fields))
	var offset uint64
	for _, f := range ps.fields {
		info, ok := vertexFormats[f.typeName]
		if !ok {
			return wgpu.VertexBufferLayout{}, fmt.Errorf("shader: %s.%s has type %s with no vertex format", ps.name, f.name, f.typeName)
		}
		attrs = append(attrs, wgpu.VertexAttribute{
			Format:         info.format,
			Offset:         offset,
			ShaderLocation: uint32(f.location),
		})
		offset += info.size
	}
	return wgpu.VertexBufferLayout{
		ArrayStride: offset,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes:  attrs,
	}, nil
}

// splitAtTopLevelCommas splits on commas outside angle brackets.
func splitAtTopLevelCommas(s string) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<':
			depth++
		case '>':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}

// stripComments removes line comments and nested block comments.
func stripComments(source string) string {
	var sb strings.Builder
	sb.Grow(len(source))
	depth := 0
	for i := 0; i < len(source); i++ {
		if i+1 < len(source) {
			switch source[i : i+2] {
			case "/*":
				depth++
				i++
				continue
			case "*/":
				if depth > 0 {
					depth--
				}
				i++
				continue
			case "//":
				if depth == 0 {
					for i < len(source) && source[i] != '\n' {
						i++
					}
					if i < len(source) {
						sb.WriteByte('\n')
					}
					continue
				}
			}
		}
		if depth == 0 {
			sb.WriteByte(source[i])
		}
	}
	return sb.String()
}
