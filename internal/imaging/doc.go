// Package imaging compresses still images to a byte budget.
//
// An image is decoded once, resized once according to a geometry.Policy, and
// then saved repeatedly at decreasing quality until the saved file fits the
// budget or the quality floor is reached. The sequence of attempts is returned
// as a trial history so callers can report how the final quality was chosen.
package imaging
