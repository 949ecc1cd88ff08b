// Package entropy finds secrets that match no known signature by extracting
// token-shaped candidates from each line and scoring their Shannon entropy.
package entropy
