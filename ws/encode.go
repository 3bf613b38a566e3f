package ws

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/IvanTurko/httpmediator/event"
	"github.com/gorilla/websocket"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

func encode(enc Encoding, name string, payload event.Payload) (int, []byte, error) {
	doc := map[string]any{
		"event": name,
		"data":  wireData(payload),
	}

	if enc == EncodingProto {
		s, err := structpb.NewStruct(doc)
		if err != nil {
			return 0, nil, err
		}
		data, err := proto.Marshal(s)
		return websocket.BinaryMessage, data, err
	}

	data, err := json.Marshal(doc)
	return websocket.TextMessage, data, err
}

// wireData reduces a payload to values both encodings understand. Byte chunks
// stay bytes (base64 on the wire), collaborators become their String form.
func wireData(payload event.Payload) map[string]any {
	data := make(map[string]any, len(payload))
	for k, v := range payload {
		data[k] = wireValue(v)
	}
	return data
}

func wireValue(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case []byte, string, bool, int64, float64:
		return val
	case int:
		return int64(val)
	case fmt.Stringer:
		if isNilPointer(v) {
			return nil
		}
		return val.String()
	}

	if isNilPointer(v) {
		return nil
	}
	return fmt.Sprint(v)
}

func isNilPointer(v any) bool {
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}
