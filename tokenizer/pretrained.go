package tokenizer

import (
	"fmt"

	hftokenizer "github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
)

type pretrainedEncoder struct {
	tk *hftokenizer.Tokenizer
}

func (e *pretrainedEncoder) Encode(text string) ([]uint32, error) {
	enc, err := e.tk.EncodeSingle(text, true)
	if err != nil {
		return nil, err
	}
	ids := make([]uint32, len(enc.Ids))
	for i, id := range enc.Ids {
		if id < 0 {
			return nil, fmt.Errorf("negative token id %d", id)
		}
		ids[i] = uint32(id)
	}
	return ids, nil
}

// Load reads a serialized tokenizer (tokenizer.json) and returns a Loaded model.
func Load(path string, opts ...Option) (*Model, error) {
	tk, err := pretrained.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer %s: %w", path, err)
	}
	return New(&pretrainedEncoder{tk: tk}, opts...), nil
}
