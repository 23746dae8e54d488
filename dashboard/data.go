package dashboard

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/etnz/portopt"
	"github.com/etnz/portopt/data"
	"github.com/fsnotify/fsnotify"
)

// Data is the sample price table, optionally loaded from a CSV file that
// can be reloaded while the dashboard runs.
type Data struct {
	path string // empty for the embedded sample data

	mu    sync.RWMutex
	table *portopt.Table
}

// LoadData loads the price CSV at 'path', or the embedded sample data when
// path is empty.
func LoadData(path string) (*Data, error) {
	d := &Data{path: path}
	if err := d.Reload(); err != nil {
		return nil, err
	}
	return d, nil
}

// Table returns the current price table. It must not be modified.
func (d *Data) Table() *portopt.Table {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.table
}

// Reload reads the data file again.
func (d *Data) Reload() error {
	var r io.Reader = data.BasicData()
	if d.path != "" {
		f, err := os.Open(d.path)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}
	t, err := portopt.DecodeCSV(r)
	if err != nil {
		return fmt.Errorf("cannot load data %q: %w", d.path, err)
	}
	d.mu.Lock()
	d.table = t
	d.mu.Unlock()
	return nil
}

// Watch reloads the data file whenever it changes, until ctx is done.
func (d *Data) Watch(ctx context.Context) error {
	if d.path == "" {
		<-ctx.Done()
		return nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	// editors often replace files, so the directory is watched instead.
	if err := w.Add(filepath.Dir(d.path)); err != nil {
		return err
	}
	name := filepath.Clean(d.path)
	log.Printf("watching %s for changes", name)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != name || !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if err := d.Reload(); err != nil {
				log.Printf("data file changed but cannot be reloaded: %v", err)
				continue
			}
			log.Printf("data file %s reloaded", name)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Printf("watch error: %v", err)
		}
	}
}

// SampleFund returns a price-weighted index of the columns of t, the fund
// used as baseline when live data is not available.
func SampleFund(t *portopt.Table) *portopt.Table {
	fund := portopt.NewTable(t.Dates, "Sample fund")
	for r := range t.Dates {
		sum := 0.0
		for _, v := range t.Row(r) {
			sum += v
		}
		fund.Set(r, 0, sum/float64(len(t.Columns)))
	}
	return fund
}
