// Package actorpipeline implements the orient/mask/crop/balance/persist
// sequence and the top-level command dispatch that funnels every scan
// attempt through structured logging and the response envelope.
package actorpipeline

import "image"

// Reindexer is the external collaborator that rebuilds an actor directory's
// listing after a new artifact is persisted.
type Reindexer interface {
	Reindex(scenesDynamicDir, scene, actor string) error
}

// Thumbnailer is the external collaborator responsible for producing a
// per-scene preview image; the seam defaults to a no-op (NoopThumbnailer)
// and exists only so a caller embedding this module can supply a real one.
type Thumbnailer interface {
	Thumbnail(scenesDir, scene string) error
}

// SystemController performs host-level actions requested through the
// "system:" command namespace; defaulting to a no-op keeps the core free of privileged
// syscalls while leaving the seam available to an embedder.
type SystemController interface {
	Poweroff() error
}

type NoopThumbnailer struct{}

func (NoopThumbnailer) Thumbnail(scenesDir, scene string) error { return nil }

type NoopSystemController struct{}

func (NoopSystemController) Poweroff() error { return nil }

// MaskSource resolves the effective mask bitmap for a (scene, actor,
// version) triple; kept as a seam so tests can substitute an in-memory
// mask instead of reading from disk.
type MaskSource interface {
	Mask(scene, actor string, version int) (image.Image, MaskMeta, error)
}
