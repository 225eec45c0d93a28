// Package export writes meshing results in interchange formats.
package export

import (
	"fmt"
	"sort"

	"voxmesh/internal/meshing"

	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// Stats summarizes what BuildDocument wrote.
type Stats struct {
	Meshes     int
	Primitives int
	Vertices   int
	Triangles  int
}

// BuildDocument converts chunk meshes to a glTF document with one material per
// name and one node per non-empty chunk. Vertex positions are moved into world
// space. Chunks are written in world position order.
func BuildDocument(meshes []meshing.ChunkMesh, materials []string) (*gltf.Document, Stats, error) {
	var stats Stats
	doc := gltf.NewDocument()
	doc.Asset.Generator = "voxmesh"
	if len(doc.Scenes) == 0 {
		doc.Scenes = append(doc.Scenes, &gltf.Scene{Name: "Root Scene"})
		doc.Scene = gltf.Index(0)
	}
	for _, name := range materials {
		doc.Materials = append(doc.Materials, &gltf.Material{Name: name})
	}

	sorted := append([]meshing.ChunkMesh(nil), meshes...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].WorldPosition.Less(sorted[j].WorldPosition)
	})

	for _, m := range sorted {
		if m.IsEmpty() {
			continue
		}
		if err := m.Validate(); err != nil {
			return nil, stats, err
		}
		if len(m.SubMeshes) > len(materials) {
			return nil, stats, errors.Wrapf(meshing.ErrMaterialMismatch,
				"mesh %v has %d sub-meshes, %d materials", m.WorldPosition, len(m.SubMeshes), len(materials))
		}

		offset := m.WorldPosition.Vec3()
		positions := make([][3]float32, len(m.Vertices))
		for i, v := range m.Vertices {
			positions[i] = v.Add(offset)
		}
		uvs := make([][2]float32, len(m.UVs))
		for i, uv := range m.UVs {
			uvs[i] = uv
		}
		posAcc := modeler.WritePosition(doc, positions)
		uvAcc := modeler.WriteTextureCoord(doc, uvs)

		mesh := &gltf.Mesh{Name: chunkName(m)}
		for s, indices := range m.SubMeshes {
			if len(indices) == 0 {
				continue
			}
			mesh.Primitives = append(mesh.Primitives, &gltf.Primitive{
				Indices: gltf.Index(modeler.WriteIndices(doc, indices)),
				Attributes: map[string]uint32{
					gltf.POSITION:   posAcc,
					gltf.TEXCOORD_0: uvAcc,
				},
				Material: gltf.Index(uint32(s)),
			})
			stats.Triangles += len(indices) / 3
		}
		stats.Primitives += len(mesh.Primitives)
		stats.Vertices += len(positions)
		stats.Meshes++

		doc.Meshes = append(doc.Meshes, mesh)
		doc.Nodes = append(doc.Nodes, &gltf.Node{
			Name: mesh.Name,
			Mesh: gltf.Index(uint32(len(doc.Meshes) - 1)),
		})
		doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, uint32(len(doc.Nodes)-1))
	}
	return doc, stats, nil
}

// WriteGLTF builds the document and saves it to path, as .glb when binary is set.
func WriteGLTF(path string, meshes []meshing.ChunkMesh, materials []string, binary bool) (Stats, error) {
	doc, stats, err := BuildDocument(meshes, materials)
	if err != nil {
		return stats, err
	}
	save := gltf.Save
	if binary {
		save = gltf.SaveBinary
	}
	if err := save(doc, path); err != nil {
		return stats, errors.Wrapf(err, "save %s", path)
	}
	return stats, nil
}

func chunkName(m meshing.ChunkMesh) string {
	p := m.WorldPosition
	return fmt.Sprintf("chunk_%d_%d_%d", p.X, p.Y, p.Z)
}
