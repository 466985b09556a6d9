// Package shader reflects WGSL source into the layouts a render pipeline needs: entry points,
// vertex buffer layouts, and bind group layouts with buffer sizes derived from struct definitions.
package shader

import (
	"fmt"
	"maps"
	"slices"

	"github.com/Carmen-Shannon/eduren/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

// Reflection is what Reflect learned about a WGSL module.
type Reflection struct {
	// VertexEntryPoint is the first @vertex function.
	VertexEntryPoint string

	// FragmentEntryPoint is the first @fragment function, empty if the module has none.
	FragmentEntryPoint string

	// VertexLayouts holds one buffer layout per vertex input struct, in declaration order.
	VertexLayouts []wgpu.VertexBufferLayout

	// bindGroups holds entries without visibility, keyed by group index.
	bindGroups map[int][]wgpu.BindGroupLayoutEntry

	// bindingNames maps group, then binding, to the declared variable name.
	bindingNames map[int]map[int]string

	structs map[string]wgslTypeLayout
}

// Reflect parses a WGSL module. Only buffer bindings (var<uniform> and var<storage>) are supported.
//
// Parameters:
//   - source: the WGSL source
//
// Returns:
//   - *Reflection: the module's entry points and layouts
//   - error: error if the module has no @vertex entry point, a binding is not a buffer, a buffer's
//     size cannot be computed, or a vertex input uses a type with no vertex format
func Reflect(source string) (*Reflection, error) {
	cleaned := stripComments(source)
	structs := parseStructBlocks(cleaned)

	r := &Reflection{
		VertexEntryPoint:   parseEntryPoint(cleaned, pipeline.StageVertex),
		FragmentEntryPoint: parseEntryPoint(cleaned, pipeline.StageFragment),
		bindGroups:         make(map[int][]wgpu.BindGroupLayoutEntry),
		bindingNames:       make(map[int]map[int]string),
		structs:            computeStructSizes(structs),
	}
	if r.VertexEntryPoint == "" {
		return nil, fmt.Errorf("shader: no @vertex entry point")
	}

	for _, ps := range structs {
		if !isVertexInputStruct(ps) {
			continue
		}
		layout, err := buildVertexBufferLayout(ps)
		if err != nil {
			return nil, err
		}
		r.VertexLayouts = append(r.VertexLayouts, layout)
	}

	decls, err := parseBindings(cleaned)
	if err != nil {
		return nil, err
	}
	for _, d := range decls {
		entry, err := d.layoutEntry(r.structs)
		if err != nil {
			return nil, err
		}
		r.bindGroups[d.group] = append(r.bindGroups[d.group], entry)
		if r.bindingNames[d.group] == nil {
			r.bindingNames[d.group] = make(map[int]string)
		}
		r.bindingNames[d.group][d.binding] = d.name
	}
	for g := range r.bindGroups {
		slices.SortFunc(r.bindGroups[g], func(a, b wgpu.BindGroupLayoutEntry) int {
			return int(a.Binding) - int(b.Binding)
		})
	}
	return r, nil
}

// Groups returns the declared group indices in ascending order.
func (r *Reflection) Groups() []int {
	return slices.Sorted(maps.Keys(r.bindGroups))
}

// BindGroupLayout returns the layout of one group with every entry visible to the given stages.
//
// Parameters:
//   - group: the @group index
//   - visibility: the shader stages that can access the group's resources
//
// Returns:
//   - wgpu.BindGroupLayoutDescriptor: the layout
//   - bool: false if the module declares nothing in that group
func (r *Reflection) BindGroupLayout(group int, visibility wgpu.ShaderStage) (wgpu.BindGroupLayoutDescriptor, bool) {
	entries, ok := r.bindGroups[group]
	if !ok {
		return wgpu.BindGroupLayoutDescriptor{}, false
	}
	out := slices.Clone(entries)
	for i := range out {
		out[i].Visibility = visibility
	}
	return wgpu.BindGroupLayoutDescriptor{Entries: out}, true
}

// BindingName returns the variable declared at group/binding, or "" if there is none.
func (r *Reflection) BindingName(group, binding int) string {
	return r.bindingNames[group][binding]
}

// StructSize returns the host-shareable size in bytes of a struct declared in the module.
func (r *Reflection) StructSize(name string) (uint64, bool) {
	l, ok := r.structs[name]
	return l.size, ok
}

// PipelineOptions returns the builder options that describe the module to pipeline.NewPipeline:
// the shared source, both entry points, every vertex layout, and every bind group visible to both stages.
// A module without a @fragment entry point keeps the pipeline's default fragment entry.
//
// Parameters:
//   - source: the same source passed to Reflect
//
// Returns:
//   - []pipeline.PipelineBuilderOption: options to pass to pipeline.NewPipeline
func (r *Reflection) PipelineOptions(source string) []pipeline.PipelineBuilderOption {
	opts := []pipeline.PipelineBuilderOption{
		pipeline.WithVertexSource(source, r.VertexEntryPoint),
	}
	if r.FragmentEntryPoint != "" {
		opts = append(opts, pipeline.WithFragmentSource(source, r.FragmentEntryPoint))
	}
	if len(r.VertexLayouts) > 0 {
		opts = append(opts, pipeline.WithVertexLayouts(r.VertexLayouts...))
	}
	for _, g := range r.Groups() {
		vs, _ := r.BindGroupLayout(g, wgpu.ShaderStageVertex)
		fs, _ := r.BindGroupLayout(g, wgpu.ShaderStageFragment)
		opts = append(opts,
			pipeline.WithBindGroupLayout(pipeline.StageVertex, g, vs),
			pipeline.WithBindGroupLayout(pipeline.StageFragment, g, fs),
		)
	}
	return opts
}
