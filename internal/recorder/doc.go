// Package recorder captures microphone audio between dial activation
// events and stages finished takes as WAV files for ingestion.
package recorder
