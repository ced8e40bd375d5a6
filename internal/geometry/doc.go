// Package geometry decides the pixel dimensions an image is resized to before
// it is encoded.
//
// Two policies are supported:
//   - FixedAspect(W, H): scale to cover W×H, then center-crop to exactly W×H.
//   - FreeFit(maxW, maxH): scale down uniformly until both bounds hold; never
//     upsample.
//
// Plan is pure arithmetic; the pixel work lives in package imaging.
package geometry
