package output

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manifest-network/blockfeed/internal/feed"
	"github.com/manifest-network/blockfeed/internal/models"
)

func sampleView() feed.View {
	return feed.View{
		Head:    100,
		Page:    1,
		MaxPage: 10,
		Polling: true,
		Blocks: []feed.BlockView{
			{
				Block: &models.Block{
					Height:     100,
					Hash:       "0xaaa",
					ParentHash: "0xbbb",
					Timestamp:  1700000000,
					TxCount:    2,
					Transactions: []*models.Transaction{
						{Hash: "0xt0", From: "0xf0", To: "0xr0", Value: "9007199254740993", Gas: "21000", GasPrice: "1"},
						{Hash: "0xt1", From: "0xf1", Value: "0", Gas: "53000", GasPrice: "2"},
					},
				},
				Expanded:   true,
				TxExpanded: []bool{false, true},
			},
			{
				Block:      &models.Block{Height: 99, Hash: "0xccc", ParentHash: "0xddd", TxCount: 5},
				TxExpanded: []bool{},
			},
		},
	}
}

func TestTextHandlerWriteView(t *testing.T) {
	var buf bytes.Buffer
	h := NewTextHandler(&buf)
	require.NoError(t, h.WriteView(sampleView()))

	out := buf.String()
	assert.Contains(t, out, "Page 1 of 10 | head 100 | live")
	assert.Contains(t, out, "- [0] Block Number: 100")
	assert.Contains(t, out, "+ [1] Block Number: 99")
	assert.Contains(t, out, "2023-11-14T22:13:20Z")
	assert.Contains(t, out, "[0] 0xt0")
	// Only the expanded transaction shows details.
	assert.NotContains(t, out, "0xf0")
	assert.Contains(t, out, "From:      0xf1")
	assert.Contains(t, out, "(contract creation)")
	assert.Contains(t, out, "Transactions: 5")
}

func TestTextHandlerLoading(t *testing.T) {
	var buf bytes.Buffer
	h := NewTextHandler(&buf)
	v := sampleView()
	v.Loading = true
	v.Polling = false
	require.NoError(t, h.WriteView(v))

	assert.Contains(t, buf.String(), "paused")
	assert.Contains(t, buf.String(), "Loading...")
	assert.NotContains(t, buf.String(), "Block Number")
}

func TestTextHandlerDetailNotFetched(t *testing.T) {
	var buf bytes.Buffer
	h := NewTextHandler(&buf)
	v := sampleView()
	v.Blocks[1].Expanded = true
	require.NoError(t, h.WriteView(v))
	assert.Contains(t, buf.String(), "transaction detail not fetched")
}

func TestJSONHandlerWriteView(t *testing.T) {
	var buf bytes.Buffer
	h := NewJSONHandler(&buf)
	require.NoError(t, h.WriteView(sampleView()))

	var got jsonView
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, uint64(100), got.Head)
	require.Len(t, got.Blocks, 2)
	assert.True(t, got.Blocks[0].Expanded)
	require.Len(t, got.Blocks[0].Transactions, 2)
	assert.True(t, got.Blocks[0].Transactions[1].Expanded)
	assert.Equal(t, "9007199254740993", got.Blocks[0].Transactions[0].Value)
	assert.Contains(t, buf.String(), `"value":"9007199254740993"`)
}

func TestNew(t *testing.T) {
	h, err := New("", &bytes.Buffer{})
	require.NoError(t, err)
	assert.IsType(t, &TextHandler{}, h)

	h, err = New(FormatJSON, &bytes.Buffer{})
	require.NoError(t, err)
	assert.IsType(t, &JSONHandler{}, h)

	_, err = New("yaml", &bytes.Buffer{})
	assert.ErrorContains(t, err, "unknown output format")
}
