package provider

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseSource_CaseInsensitiveWithGenericDefault(t *testing.T) {
	t.Parallel()

	require.Equal(t, SourceBinance, ParseSource("Binance"))
	require.Equal(t, SourceYahoo, ParseSource(" YAHOO "))
	require.Equal(t, SourceGeneric, ParseSource("okx"))
	require.Equal(t, SourceGeneric, ParseSource(""))
	require.Equal(t, "generic", ParseSource("unknownx").String())
}

func TestParseAPIType(t *testing.T) {
	t.Parallel()

	require.Equal(t, APIMarket, ParseAPIType("market"))
	require.Equal(t, APIHistorical, ParseAPIType("Historical"))
	require.Equal(t, APIRealtime, ParseAPIType("realtime"))
	require.Equal(t, APIUnknown, ParseAPIType("orderbook"))
}

func TestKindOf(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("outer: %w", NewError("binance", "klines", KindEmpty, nil))
	require.Equal(t, KindEmpty, KindOf(wrapped))
	require.Equal(t, KindUnavailable, KindOf(errors.New("dial tcp: refused")))

	err := NewError("yahoo", "quote", KindStatus, errors.New("404"))
	require.Equal(t, "yahoo quote: status: 404", err.Error())
}
