package topology

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/gridsim/core/factory"
)

var testTypes = NewKnownTypes("network", "solarpanel", "windturbine", "chargingstation", "cpo")

func ptr(v float64) *float64 { return &v }

func sampleDoc() Document {
	return Document{
		SimulationTime: SimulationTimeSpec{
			Rate:  3600,
			Start: "2024-06-01T00:00:00",
			End:   "2024-06-02T00:00:00",
		},
		InteractionAsset: &AssetSpec{Name: "cpo", Type: "cpo", MaxPowerKW: ptr(20)},
		Network: &NetworkSpec{
			Name:       "main_network",
			MaxPowerKW: ptr(100),
			Children: []ChildSpec{
				{Network: &NetworkSpec{
					Name:         "houses",
					LogThreshold: "WARNING",
					Children: []ChildSpec{
						{Asset: &AssetSpec{Name: "pv1", Type: "solarpanel", MaxPowerKW: ptr(5)}},
						{Asset: &AssetSpec{Name: "pv2", Type: "solarpanel", MaxPowerKW: ptr(5), Factor: ptr(0.5)}},
					},
				}},
				{Asset: &AssetSpec{
					Name:       "cs1",
					Type:       "chargingstation",
					MaxPowerKW: ptr(11),
					Args:       map[string]any{"smart": true, "cpo": "cpo"},
				}},
			},
		},
	}
}

func TestParseAddresses(t *testing.T) {
	tree, err := Parse(sampleDoc(), testTypes)
	require.NoError(t, err)

	var addrs []string
	for _, n := range tree.Nodes() {
		addrs = append(addrs, n.Address)
	}
	assert.Equal(t, []string{
		"main_network",
		"main_network/houses",
		"main_network/houses/pv1",
		"main_network/houses/pv2",
		"main_network/cs1",
		"cpo",
	}, addrs)

	pv2, ok := tree.Lookup("main_network/houses/pv2")
	require.True(t, ok)
	assert.Equal(t, "main_network/houses", pv2.ParentAddress())
	assert.Equal(t, KindAsset, pv2.Kind)
	f, _ := pv2.Float(ParamFactor)
	assert.Equal(t, 0.5, f)
	assert.Equal(t, "warn", pv2.LogThreshold)
	assert.Equal(t, 2, tree.Height())
}

func TestParseDefaults(t *testing.T) {
	tree, err := Parse(sampleDoc(), testTypes)
	require.NoError(t, err)

	assert.Equal(t, NetworkType, tree.Root.Type)
	pv1, _ := tree.Lookup("main_network/houses/pv1")
	f, ok := pv1.Float(ParamFactor)
	require.True(t, ok)
	assert.Equal(t, 1.0, f)
	assert.Equal(t, "", tree.Root.LogThreshold)
}

func TestParseResolvesReferences(t *testing.T) {
	tree, err := Parse(sampleDoc(), testTypes)
	require.NoError(t, err)

	cs, _ := tree.Lookup("main_network/cs1")
	assert.Equal(t, "cpo", cs.Params[ParamCPO])

	cpo := tree.Interaction[0]
	assert.True(t, cpo.Interaction)
	assert.Equal(t, "main_network", cpo.Params[ParamNetwork])
	assert.Equal(t, 100.0, cpo.Params[ParamNetworkMaxPowerKW])
}

func TestParseNetworkReference(t *testing.T) {
	doc := sampleDoc()
	doc.InteractionAsset.Args = map[string]any{"network": "houses"}
	tree, err := Parse(doc, testTypes)
	require.NoError(t, err)
	assert.Equal(t, "main_network/houses", tree.Interaction[0].Params[ParamNetwork])
	_, has := tree.Interaction[0].Params[ParamNetworkMaxPowerKW]
	assert.False(t, has)

	doc = sampleDoc()
	doc.InteractionAsset.Args = map[string]any{"network": "nowhere"}
	_, err = Parse(doc, testTypes)
	var cerr *ConfigError
	require.ErrorAs(t, err, &cerr)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Document)
	}{
		{"missing type", func(d *Document) {
			d.Network.Children[1].Asset.Type = ""
		}},
		{"sibling collision", func(d *Document) {
			d.Network.Children[0].Network.Children[1].Asset.Name = "pv1"
		}},
		{"asset with children", func(d *Document) {
			d.Network.Children[1].Asset.Children = []ChildSpec{{Asset: &AssetSpec{Name: "x", Type: "solarpanel"}}}
		}},
		{"empty name", func(d *Document) {
			d.Network.Children[0].Network.Name = ""
		}},
		{"reserved character", func(d *Document) {
			d.Network.Children[0].Network.Name = "a/b"
		}},
		{"reserved prefix", func(d *Document) {
			d.Network.Name = "_clock"
		}},
		{"dangling cpo", func(d *Document) {
			d.Network.Children[1].Asset.Args["cpo"] = "other"
		}},
		{"interaction collides with root", func(d *Document) {
			d.InteractionAsset.Name = "main_network"
		}},
		{"empty child", func(d *Document) {
			d.Network.Children = append(d.Network.Children, ChildSpec{})
		}},
		{"bad threshold", func(d *Document) {
			d.Network.LogThreshold = "loud"
		}},
		{"zero rate", func(d *Document) {
			d.SimulationTime.Rate = 0
		}},
		{"end before start", func(d *Document) {
			d.SimulationTime.End = "2024-05-01"
		}},
		{"bad date", func(d *Document) {
			d.SimulationTime.Start = "yesterday"
		}},
		{"missing root", func(d *Document) {
			d.Network = nil
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := sampleDoc()
			tt.mutate(&doc)
			_, err := Parse(doc, testTypes)
			var cerr *ConfigError
			if !errors.As(err, &cerr) {
				t.Fatalf("expected ConfigError, got %v", err)
			}
		})
	}
}

func TestParseUnknownType(t *testing.T) {
	doc := sampleDoc()
	doc.Network.Children[0].Network.Children[0].Asset.Type = "fusionreactor"
	_, err := Parse(doc, testTypes)

	var uerr *UnknownAssetTypeError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, "fusionreactor", uerr.Type)
	assert.Equal(t, "main_network/houses/pv1", uerr.Address)
	assert.True(t, errors.Is(err, factory.ErrUnknownType))
	assert.Contains(t, err.Error(), "fusionreactor is not a valid asset type and cannot be instantiated")
}

func TestWindowTicks(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		end  time.Time
		rate float64
		want int
	}{
		{start.Add(24 * time.Hour), 3600, 24},
		{start.Add(90 * time.Minute), 3600, 1},
		{start.Add(10 * time.Second), 0.5, 20},
		{start.Add(time.Minute), 3600, 0},
	}
	for _, tt := range tests {
		w := Window{Start: start, End: tt.end, Rate: tt.rate}
		if got := w.Ticks(); got != tt.want {
			t.Fatalf("ticks(%v, %v) = %d, want %d", tt.end.Sub(start), tt.rate, got, tt.want)
		}
	}
	w := Window{Start: start, End: start.Add(time.Hour), Rate: 60}
	assert.Equal(t, start.Add(3*time.Minute), w.At(3))
}

func TestParseWindowAcceptsTimeValues(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	w, err := ParseWindow(SimulationTimeSpec{Rate: 60, Start: start, End: "2024-01-01 01:00:00"})
	require.NoError(t, err)
	assert.Equal(t, 60, w.Ticks())
}

func TestParseNilTypeSetAcceptsAll(t *testing.T) {
	doc := sampleDoc()
	doc.Network.Children[1].Asset.Type = "anything"
	_, err := Parse(doc, nil)
	require.NoError(t, err)
}
