package entities

import (
	"bytes"
	"encoding/gob"
)

func (d *OrderDetail) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(d); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (d *OrderDetail) Unmarshal(data []byte) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(d)
}

func init() {
	gob.Register(OrderDetail{})
	gob.Register(LineDetail{})
}
