package loader

// config holds AsyncLoader construction parameters, matching the
// functional-option builder pattern used throughout this module.
type config struct {
	decodeMesh  MeshDecodeFunc
	decodeImage ImageDecodeFunc
}

func defaultConfig() config {
	return config{
		decodeMesh:  DecodeGLTFMesh,
		decodeImage: DecodeImageFile,
	}
}

// Option configures an AsyncLoader at construction time.
type Option func(*config)

// WithMeshDecoder overrides the default glTF mesh decoder, e.g. with a
// fake for tests or a different format backend.
func WithMeshDecoder(fn MeshDecodeFunc) Option {
	return func(c *config) { c.decodeMesh = fn }
}

// WithImageDecoder overrides the default stdlib image decoder.
func WithImageDecoder(fn ImageDecodeFunc) Option {
	return func(c *config) { c.decodeImage = fn }
}
