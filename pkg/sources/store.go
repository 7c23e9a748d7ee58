package sources

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/sudorandom/debris-globe/pkg/globe"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

const framePrefix = "frame/"

var ErrFrameNotFound = errors.New("frame not found")

// FrameStore keeps named frames on disk so an animated series can be built
// up over several runs.
type FrameStore struct {
	db *badger.DB
}

// OpenFrameStore opens or creates a store at path.
func OpenFrameStore(path string) (*FrameStore, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening frame store: %w", err)
	}
	return &FrameStore{db: db}, nil
}

// OpenInMemoryFrameStore returns a store that is discarded on Close.
func OpenInMemoryFrameStore() (*FrameStore, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening frame store: %w", err)
	}
	return &FrameStore{db: db}, nil
}

func (s *FrameStore) Close() error {
	return s.db.Close()
}

func frameKey(name string) []byte {
	return []byte(framePrefix + name)
}

// encodeFrame stores a frame as a protobuf Struct with "format" and "data"
// fields.
func encodeFrame(f Frame) ([]byte, error) {
	values := make([]*structpb.Value, len(f.Data))
	for i, v := range f.Data {
		values[i] = structpb.NewNumberValue(v)
	}
	msg := &structpb.Struct{Fields: map[string]*structpb.Value{
		"format": structpb.NewStringValue(string(f.Format)),
		"data":   structpb.NewListValue(&structpb.ListValue{Values: values}),
	}}
	return proto.Marshal(msg)
}

func decodeFrame(name string, b []byte) (Frame, error) {
	var msg structpb.Struct
	if err := proto.Unmarshal(b, &msg); err != nil {
		return Frame{}, fmt.Errorf("decoding frame %q: %w", name, err)
	}
	f := Frame{Name: name, Format: globe.Format(msg.GetFields()["format"].GetStringValue())}
	list := msg.GetFields()["data"].GetListValue().GetValues()
	f.Data = make([]float64, len(list))
	for i, v := range list {
		f.Data[i] = v.GetNumberValue()
	}
	return f, nil
}

var errEmptyName = errors.New("frame name is empty")

// Put stores f under its name, replacing any frame with the same name.
func (s *FrameStore) Put(f Frame) error {
	if f.Name == "" {
		return errEmptyName
	}
	b, err := encodeFrame(f)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(frameKey(f.Name), b)
	})
}

// PutAll stores frames in one batch.
func (s *FrameStore) PutAll(frames []Frame) error {
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for _, f := range frames {
		if f.Name == "" {
			return errEmptyName
		}
		b, err := encodeFrame(f)
		if err != nil {
			return err
		}
		if err := wb.Set(frameKey(f.Name), b); err != nil {
			return err
		}
	}
	return wb.Flush()
}

// Get returns the frame called name, or ErrFrameNotFound.
func (s *FrameStore) Get(name string) (Frame, error) {
	var val []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(frameKey(name))
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return Frame{}, fmt.Errorf("%q: %w", name, ErrFrameNotFound)
	}
	if err != nil {
		return Frame{}, err
	}
	return decodeFrame(name, val)
}

// Delete removes the frame called name. Deleting a missing frame is not an
// error.
func (s *FrameStore) Delete(name string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(frameKey(name))
	})
}

// ForEach calls fn for every frame in name order.
func (s *FrameStore) ForEach(fn func(Frame) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(framePrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			name := strings.TrimPrefix(string(item.Key()), framePrefix)
			err := item.Value(func(v []byte) error {
				f, err := decodeFrame(name, v)
				if err != nil {
					return err
				}
				return fn(f)
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// Names lists the stored frame names in order.
func (s *FrameStore) Names() ([]string, error) {
	var names []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(framePrefix)
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			names = append(names, strings.TrimPrefix(string(it.Item().Key()), framePrefix))
		}
		return nil
	})
	return names, err
}

// All returns every stored frame in name order.
func (s *FrameStore) All() ([]Frame, error) {
	var frames []Frame
	err := s.ForEach(func(f Frame) error {
		frames = append(frames, f)
		return nil
	})
	return frames, err
}
