package pipeline

import (
	"sort"

	"github.com/cogentcore/webgpu/wgpu"
)

// MergeBindGroupLayouts merges the bind group layout descriptors from a vertex and fragment stage
// into a unified set of descriptors suitable for a render pipeline layout.
//
// For each group index present in either stage:
//   - Entries with the same binding number have their Visibility flags ORed together
//   - Entries unique to one stage are included with their original visibility
//
// Parameters:
//   - vertexLayouts: bind group layout descriptors from the vertex stage
//   - fragmentLayouts: bind group layout descriptors from the fragment stage
//
// Returns:
//   - map[int]wgpu.BindGroupLayoutDescriptor: the merged descriptors keyed by group index
func MergeBindGroupLayouts(
	vertexLayouts, fragmentLayouts map[int]wgpu.BindGroupLayoutDescriptor,
) map[int]wgpu.BindGroupLayoutDescriptor {
	merged := make(map[int]wgpu.BindGroupLayoutDescriptor)

	groupIndices := make(map[int]bool)
	for g := range vertexLayouts {
		groupIndices[g] = true
	}
	for g := range fragmentLayouts {
		groupIndices[g] = true
	}

	for g := range groupIndices {
		vDesc, hasV := vertexLayouts[g]
		fDesc, hasF := fragmentLayouts[g]

		switch {
		case hasV && !hasF:
			merged[g] = vDesc
		case hasF && !hasV:
			merged[g] = fDesc
		default:
			entryMap := make(map[uint32]wgpu.BindGroupLayoutEntry)
			for _, e := range vDesc.Entries {
				entryMap[e.Binding] = e
			}
			for _, e := range fDesc.Entries {
				if existing, ok := entryMap[e.Binding]; ok {
					existing.Visibility |= e.Visibility
					entryMap[e.Binding] = existing
				} else {
					entryMap[e.Binding] = e
				}
			}

			entries := make([]wgpu.BindGroupLayoutEntry, 0, len(entryMap))
			for _, e := range entryMap {
				entries = append(entries, e)
			}
			// sorted by binding for a deterministic layout
			sort.Slice(entries, func(i, j int) bool {
				return entries[i].Binding < entries[j].Binding
			})

			merged[g] = wgpu.BindGroupLayoutDescriptor{
				Label:   vDesc.Label,
				Entries: entries,
			}
		}
	}

	return merged
}

// UniformLayout builds a single-group layout descriptor with one uniform buffer per binding,
// each sized by the matching entry in sizes.
//
// Parameters:
//   - label: the debug label for the layout
//   - visibility: the shader stages that can access the buffers
//   - sizes: the minimum binding size of each uniform, in binding order
//
// Returns:
//   - wgpu.BindGroupLayoutDescriptor: the layout descriptor
func UniformLayout(label string, visibility wgpu.ShaderStage, sizes ...uint64) wgpu.BindGroupLayoutDescriptor {
	entries := make([]wgpu.BindGroupLayoutEntry, len(sizes))
	for i, size := range sizes {
		entries[i] = wgpu.BindGroupLayoutEntry{
			Binding:    uint32(i),
			Visibility: visibility,
			Buffer: wgpu.BufferBindingLayout{
				Type:           wgpu.BufferBindingTypeUniform,
				MinBindingSize: size,
			},
		}
	}
	return wgpu.BindGroupLayoutDescriptor{
		Label:   label,
		Entries: entries,
	}
}
