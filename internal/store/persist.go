package store

import (
	"encoding/json"
	"os"

	"github.com/shashwatraajsingh/TRADEETH/internal/types"
)

// loadAll reads the whole account collection from the snapshot file.
// A missing file is an empty collection, not an error.
func loadAll(path string) (map[string]*types.Account, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]*types.Account), nil
		}
		return nil, err
	}
	defer f.Close()

	accounts := make(map[string]*types.Account)
	if err := json.NewDecoder(f).Decode(&accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

// saveAll writes the whole collection atomically: the snapshot goes to a
// temp file first and replaces the real file with a rename, so a crash
// mid-write never corrupts the previous snapshot.
func saveAll(path string, accounts map[string]*types.Account) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(accounts); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
