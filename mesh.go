// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package meshwarp

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// Mesh is a fixed-topology triangulated grid in normalized UV space.
// It is derived, never authored: an (R+1)×(R+1) grid of vertices plus two
// triangles per grid cell. A mesh is immutable once built for a given R;
// changing R rebuilds from scratch. Vertices own no identity beyond their
// grid index and are not control points.
type Mesh struct {
	// Resolution is the grid subdivision count R.
	Resolution int

	// Vertices are (R+1)² UV positions in row-major order,
	// index = y·(R+1) + x.
	Vertices []Point

	// Indices are 2·R² triangles, three entries each: for every cell the
	// triangles (topLeft, bottomLeft, topRight) and
	// (topRight, bottomLeft, bottomRight).
	Indices []uint32
}

// VertexCount returns the number of vertices, (R+1)².
func (m *Mesh) VertexCount() int {
	return len(m.Vertices)
}

// TriangleCount returns the number of triangles, 2·R².
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// GenerateMesh builds the grid mesh for resolution R. Deterministic and
// side-effect-free; invoked only when R changes.
func GenerateMesh(resolution int) (*Mesh, error) {
	if resolution <= 0 {
		return nil, ErrInvalidResolution
	}

	r := resolution
	stride := r + 1

	vertices := make([]Point, stride*stride)
	for y := 0; y <= r; y++ {
		for x := 0; x <= r; x++ {
			vertices[y*stride+x] = Point{
				X: float64(x) / float64(r),
				Y: float64(y) / float64(r),
			}
		}
	}

	indices := make([]uint32, 0, r*r*6)
	for y := 0; y < r; y++ {
		for x := 0; x < r; x++ {
			topLeft := uint32(y*stride + x)
			topRight := topLeft + 1
			bottomLeft := topLeft + uint32(stride)
			bottomRight := bottomLeft + 1

			indices = append(indices,
				topLeft, bottomLeft, topRight,
				topRight, bottomLeft, bottomRight,
			)
		}
	}

	return &Mesh{
		Resolution: r,
		Vertices:   vertices,
		Indices:    indices,
	}, nil
}

// meshCacheSize bounds the number of cached resolutions. Quality tiers use
// three fixed values; a few extra slots cover explicit export overrides.
const meshCacheSize = 8

// MeshCache memoizes generated meshes by resolution. Meshes are immutable,
// so a cached mesh can be shared freely between the render timeline and the
// exporter.
//
// MeshCache is safe for concurrent use.
type MeshCache struct {
	cache *lru.Cache[int, *Mesh]
}

// NewMeshCache creates an empty mesh cache.
func NewMeshCache() *MeshCache {
	// lru.New only fails for non-positive sizes.
	c, _ := lru.New[int, *Mesh](meshCacheSize)
	return &MeshCache{cache: c}
}

// Get returns the mesh for resolution R, generating and caching it on
// first use.
func (mc *MeshCache) Get(resolution int) (*Mesh, error) {
	if m, ok := mc.cache.Get(resolution); ok {
		return m, nil
	}
	m, err := GenerateMesh(resolution)
	if err != nil {
		return nil, err
	}
	mc.cache.Add(resolution, m)
	return m, nil
}
