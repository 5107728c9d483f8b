package serialization

import (
	"encoding/gob"
	"encoding/json"
	"io"
)

type jsonEncoder struct{ enc *json.Encoder }

func (j jsonEncoder) Encode(v any) error { return j.enc.Encode(v) }

type jsonDecoder struct{ dec *json.Decoder }

func (j jsonDecoder) Decode(v any) error { return j.dec.Decode(v) }

// JsonEncoder writes JSON without HTML escaping; translated text is stored verbatim.
func JsonEncoder(w io.Writer) Encoder {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return jsonEncoder{enc: enc}
}

// JsonDecoder reads JSON-encoded blobs.
func JsonDecoder(r io.Reader) Decoder {
	return jsonDecoder{dec: json.NewDecoder(r)}
}

// GobEncoder returns an Encoder that writes GOB-encoded data.
func GobEncoder(w io.Writer) Encoder {
	return gob.NewEncoder(w)
}

// GobDecoder returns a Decoder that reads GOB-encoded data.
func GobDecoder(r io.Reader) Decoder {
	return gob.NewDecoder(r)
}
