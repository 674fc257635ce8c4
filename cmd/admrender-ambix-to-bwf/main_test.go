package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAcnOrderDegree(t *testing.T) {
	cases := []struct {
		index   int
		n, m    int
	}{
		{0, 0, 0},
		{1, 1, -1},
		{2, 1, 0},
		{3, 1, 1},
		{4, 2, -2},
		{8, 2, 2},
		{9, 3, -3},
	}
	for _, c := range cases {
		n, m := acnOrderDegree(c.index)
		assert.Equal(t, c.n, n, "index %d order", c.index)
		assert.Equal(t, c.m, m, "index %d degree", c.index)
	}
}

func TestBuildHOAGraphChannelCount(t *testing.T) {
	order := 1
	numChannels := (order + 1) * (order + 1)
	g, chna := buildHOAGraph(order, numChannels, 0, 0)
	assert.Len(t, chna, numChannels)
	pack, ok := g.PackFormats["AP_00040001"]
	assert.True(t, ok)
	assert.Len(t, pack.ChannelFormats, numChannels)
}
