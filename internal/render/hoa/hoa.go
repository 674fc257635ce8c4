// Package hoa implements the HOA type renderer, spec §4.5: an AllRAD-style
// decoder that pans quadrature points to the layout with the Objects
// point-source panner, projects the resulting gains onto spherical
// harmonics, and per-order near-field compensation filtering.
package hoa

import (
	"math"

	"github.com/ebu/ebu-adm-renderer/internal/admmodel"
	"github.com/ebu/ebu-adm-renderer/internal/block"
	"github.com/ebu/ebu-adm-renderer/internal/layout"
	"github.com/ebu/ebu-adm-renderer/internal/panner"
	"github.com/ebu/ebu-adm-renderer/internal/pointdesign"
	"github.com/ebu/ebu-adm-renderer/internal/rendererrors"
)

// maxOrder is the highest ambisonic order this renderer's spherical
// harmonic table covers (internal/render/hoa/sphericalharmonics.go).
const maxOrder = 3

// Component is one ambisonic input channel's (order, degree, normalization)
// together with its NFC reference distance, matching one audioChannelFormat
// under an HOA pack.
type Component struct {
	Order, Degree int
	Normalization admmodel.HOANormalization
	NFCRefDist    float64
}

// Decoder is the static AllRAD decode matrix plus one NFC filter per input
// component, constant across an HOA item's lifetime (spec §4.5: "no
// interpolation required").
type Decoder struct {
	Gain    block.GainMatrix // NIn=len(Components), NOut=layout channels
	filters []*Filter
}

// BuildDecoder constructs the AllRAD decoder for components over l,
// quadrature-sampled at the embedded point design. The whole matrix is then
// scaled by one factor (normaliseColumns) so that the mean, over output
// channels, of each channel's summed squared coefficients is 1.
func BuildDecoder(components []Component, l layout.Layout) (*Decoder, error) {
	if len(components) == 0 {
		return nil, rendererrors.New(rendererrors.RenderError, "HOA pack has no channel formats")
	}
	for _, c := range components {
		if c.Order < 0 || c.Order > maxOrder {
			return nil, rendererrors.New(rendererrors.RenderError, "HOA order %d exceeds this renderer's supported range (0-%d)", c.Order, maxOrder)
		}
	}

	nOut := l.NumChannels()
	points := l.Points()
	gain := block.NewGainMatrix(len(components), nOut)

	w := pointdesign.Weight()
	for _, sample := range pointdesign.Points() {
		g := panner.PointSource(points, sample)
		for ci, c := range components {
			sh := realSH(c.Order, c.Degree, sample) * normalizationScale(c.Order, c.Normalization)
			for o := 0; o < nOut; o++ {
				gain.Set(ci, o, gain.At(ci, o)+w*sh*g[o])
			}
		}
	}

	normaliseColumns(gain)

	filters := make([]*Filter, len(components))
	for i, c := range components {
		filters[i] = NewFilter(c.Order, c.NFCRefDist)
	}
	return &Decoder{Gain: gain, filters: filters}, nil
}

// normaliseColumns scales every coefficient by one common factor, chosen so
// that the summed squared coefficients of the whole matrix equal NOut; the
// relative level of individual output channels is left as computed. This
// keeps the decoder from boosting or attenuating overall level as
// quadrature density varies by order.
func normaliseColumns(m block.GainMatrix) {
	var sumSq float64
	for i := 0; i < m.NIn; i++ {
		for o := 0; o < m.NOut; o++ {
			v := m.At(i, o)
			sumSq += v * v
		}
	}
	if sumSq <= 0 {
		return
	}
	scale := 1 / math.Sqrt(sumSq/float64(m.NOut))
	for i := 0; i < m.NIn; i++ {
		for o := 0; o < m.NOut; o++ {
			m.Set(i, o, m.At(i, o)*scale)
		}
	}
}

// FilterInputs runs each component's NFC filter over its corresponding
// input row, in place conceptually, returning new rows of the same shape.
func (d *Decoder) FilterInputs(rows [][]float64, sampleRate int) [][]float64 {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		if i < len(d.filters) {
			out[i] = d.filters[i].Process(row, sampleRate)
		} else {
			out[i] = row
		}
	}
	return out
}
