package shader

import (
	"strconv"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

// wgslTypeLayout is the size and alignment of a host-shareable WGSL type.
type wgslTypeLayout struct {
	size  uint64
	align uint64
}

type vertexFormat struct {
	format wgpu.VertexFormat
	size   uint64
}

// scalarFormats lists the 32-bit scalars, their shorthand suffix, and the vertex formats for 1 to 4 components.
var scalarFormats = []struct {
	name, suffix string
	formats      [4]wgpu.VertexFormat
}{
	{"f32", "f", [4]wgpu.VertexFormat{wgpu.VertexFormatFloat32, wgpu.VertexFormatFloat32x2, wgpu.VertexFormatFloat32x3, wgpu.VertexFormatFloat32x4}},
	{"i32", "i", [4]wgpu.VertexFormat{wgpu.VertexFormatSint32, wgpu.VertexFormatSint32x2, wgpu.VertexFormatSint32x3, wgpu.VertexFormatSint32x4}},
	{"u32", "u", [4]wgpu.VertexFormat{wgpu.VertexFormatUint32, wgpu.VertexFormatUint32x2, wgpu.VertexFormatUint32x3, wgpu.VertexFormatUint32x4}},
}

var (
	vertexFormats    = make(map[string]vertexFormat)
	primitiveLayouts = map[string]wgslTypeLayout{
		"bool":        {4, 4},
		"f16":         {2, 2},
		"atomic<u32>": {4, 4},
		"atomic<i32>": {4, 4},
	}
)

func init() {
	for _, s := range scalarFormats {
		vertexFormats[s.name] = vertexFormat{s.formats[0], 4}
		primitiveLayouts[s.name] = wgslTypeLayout{4, 4}
		for n := 2; n <= 4; n++ {
			vf := vertexFormat{s.formats[n-1], uint64(4 * n)}
			vl := vectorLayout(n)
			for _, name := range []string{"vec" + strconv.Itoa(n) + "<" + s.name + ">", "vec" + strconv.Itoa(n) + s.suffix} {
				vertexFormats[name] = vf
				primitiveLayouts[name] = vl
			}
		}
	}

	// matCxR<f32> is C columns of vecR<f32>, each column aligned to the vector's alignment.
	for c := 2; c <= 4; c++ {
		for r := 2; r <= 4; r++ {
			col := vectorLayout(r)
			stride := roundUpAlign(col.align, col.size)
			name := "mat" + strconv.Itoa(c) + "x" + strconv.Itoa(r)
			layout := wgslTypeLayout{uint64(c) * stride, col.align}
			primitiveLayouts[name+"<f32>"] = layout
			primitiveLayouts[name+"f"] = layout
		}
	}
}

// vectorLayout is the layout of an n-component vector of a 4-byte scalar. vec3 aligns like vec4.
func vectorLayout(n int) wgslTypeLayout {
	size := uint64(4 * n)
	if n == 3 {
		return wgslTypeLayout{size, 16}
	}
	return wgslTypeLayout{size, size}
}

// roundUpAlign rounds value up to a multiple of alignment, which must be a power of two.
func roundUpAlign(alignment, value uint64) uint64 {
	if alignment == 0 {
		return value
	}
	return (value + alignment - 1) &^ (alignment - 1)
}

// resolveTypeLayout resolves primitives, known structs, and arrays. A runtime-sized array
// resolves to one element's stride.
func resolveTypeLayout(typeName string, known map[string]wgslTypeLayout) (wgslTypeLayout, bool) {
	if l, ok := primitiveLayouts[typeName]; ok {
		return l, true
	}
	if l, ok := known[typeName]; ok {
		return l, true
	}
	if !strings.HasPrefix(typeName, "array<") || !strings.HasSuffix(typeName, ">") {
		return wgslTypeLayout{}, false
	}

	elemType, countStr, fixed := strings.Cut(typeName[len("array<"):len(typeName)-1], ",")
	elem, ok := resolveTypeLayout(strings.TrimSpace(elemType), known)
	if !ok {
		return wgslTypeLayout{}, false
	}
	stride := roundUpAlign(elem.align, elem.size)
	if !fixed {
		return wgslTypeLayout{stride, elem.align}, true
	}
	count, err := strconv.ParseUint(strings.TrimSpace(countStr), 10, 64)
	if err != nil {
		return wgslTypeLayout{}, false
	}
	return wgslTypeLayout{count * stride, elem.align}, true
}

// computeStructLayout lays fields out at aligned offsets and rounds the size to the largest alignment.
// Builtins are skipped. A trailing runtime-sized array contributes its fixed prefix only.
func computeStructLayout(ps parsedStruct, known map[string]wgslTypeLayout) (wgslTypeLayout, bool) {
	var offset uint64
	maxAlign := uint64(1)
	for i, f := range ps.fields {
		if f.isBuiltin {
			continue
		}
		runtimeArray := strings.HasPrefix(f.typeName, "array<") && !strings.Contains(f.typeName, ",")
		l, ok := resolveTypeLayout(f.typeName, known)
		if !ok {
			return wgslTypeLayout{}, false
		}
		if runtimeArray && i == len(ps.fields)-1 && offset > 0 {
			if l.align > maxAlign {
				maxAlign = l.align
			}
			return wgslTypeLayout{roundUpAlign(maxAlign, offset), maxAlign}, true
		}
		offset = roundUpAlign(l.align, offset) + l.size
		if l.align > maxAlign {
			maxAlign = l.align
		}
	}
	return wgslTypeLayout{roundUpAlign(maxAlign, offset), maxAlign}, true
}

// computeStructSizes resolves structs in passes until no more can be sized, so a struct may
// reference one declared after it. Unresolvable structs are left out.
func computeStructSizes(structs []parsedStruct) map[string]wgslTypeLayout {
	resolved := make(map[string]wgslTypeLayout, len(structs))
	remaining := append([]parsedStruct(nil), structs...)
	for len(remaining) > 0 {
		next := remaining[:0]
		for _, ps := range remaining {
			if l, ok := computeStructLayout(ps, resolved); ok {
				resolved[ps.name] = l
			} else {
				next = append(next, ps)
			}
		}
		if len(next) == len(remaining) {
			break
		}
		remaining = next
	}
	return resolved
}
