// Package generation defines the boundary between the pipeline core and
// external image-generation services: the Generator interface, the
// structured failure taxonomy returned by transports, and the retrying
// wrapper that applies bounded exponential backoff around a raw Generator.
package generation
