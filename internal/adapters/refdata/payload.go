package refdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Payload is the reference data response listing every asset and chain.
type Payload struct {
	Assets []AssetRecord `json:"assets"`
	Chains []ChainRecord `json:"chains"`
}

type AssetRecord struct {
	ID          string      `json:"id"`
	Address     string      `json:"address"`
	Symbol      string      `json:"symbol"`
	Chain       Ref         `json:"chain"`
	Name        string      `json:"name"`
	DisplayName string      `json:"displayName,omitempty"`
	Decimals    int         `json:"decimals"`
	LogoURL     string      `json:"logoUrl,omitempty"`
	PriceUsd    json.Number `json:"priceUsd,omitempty"` // decimal dollars
	Price       *float64    `json:"price,omitempty"`
}

type ChainRecord struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	DisplayName     string      `json:"displayName,omitempty"`
	ChainIdentifier json.Number `json:"chainIdentifier"`
	LogoURL         string      `json:"logoUrl,omitempty"`
	NativeToken     *Ref        `json:"nativeToken,omitempty"`
}

// Ref points at another record by id.
type Ref struct {
	ID string `json:"id"`
}

// Decode reads a payload, accepting either the bare object or one wrapped in
// a GraphQL "data" envelope.
func Decode(r io.Reader) (*Payload, error) {
	var envelope struct {
		Data *Payload `json:"data"`
		Payload
	}

	if err := json.NewDecoder(r).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode reference data: %w", err)
	}

	if envelope.Data != nil {
		return envelope.Data, nil
	}
	return &envelope.Payload, nil
}

// LoadFile decodes the payload stored at path.
func LoadFile(path string) (*Payload, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	return Decode(f)
}

// FileSource loads the payload from a JSON file on every call.
type FileSource struct {
	Path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

func (s *FileSource) Load(ctx context.Context) (*Payload, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return LoadFile(s.Path)
}
