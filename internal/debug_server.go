package internal

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"chat-sync/domain"

	"github.com/dgraph-io/badger/v4"
)

//go:embed inspect.html
var templatesFS embed.FS

// InspectRow is one cached roster rendered for the debug page.
type InspectRow struct {
	Key          string
	Room         string
	Participants int
	Online       int
	Members      string
}

type StatsProvider func() map[string]any

type PageData struct {
	Prefix string
	Items  []InspectRow
	Stats  map[string]any
}

// StartDebugServer exposes the cached rosters over HTTP so a developer can
// see what the reconciler persisted without attaching a debugger.
func StartDebugServer(db *badger.DB, port int, statsProvider StatsProvider) {
	mux := http.NewServeMux()
	tmpl := template.Must(template.ParseFS(templatesFS, "inspect.html"))

	mux.HandleFunc("/inspect", func(w http.ResponseWriter, r *http.Request) {
		prefix := r.URL.Query().Get("prefix")
		if prefix == "" {
			prefix = "roster:"
		}

		data := PageData{
			Prefix: prefix,
			Stats:  make(map[string]any),
		}
		if statsProvider != nil {
			data.Stats = statsProvider()
		}

		_ = db.View(func(txn *badger.Txn) error {
			it := txn.NewIterator(badger.DefaultIteratorOptions)
			defer it.Close()
			for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
				item := it.Item()
				_ = item.Value(func(val []byte) error {
					data.Items = append(data.Items, rosterRow(string(item.Key()), val))
					return nil
				})
			}
			return nil
		})

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = tmpl.Execute(w, data)
	})

	go func() {
		_ = http.ListenAndServe(fmt.Sprintf("0.0.0.0:%d", port), mux)
	}()
}

func rosterRow(key string, val []byte) InspectRow {
	row := InspectRow{
		Key:     key,
		Room:    "--------",
		Members: "Size: " + strconv.Itoa(len(val)) + " bytes",
	}

	parts := strings.Split(key, ":")
	if len(parts) >= 2 {
		row.Room = parts[1]
	}

	var records []domain.ParticipantRecord
	if err := json.Unmarshal(val, &records); err != nil {
		return row
	}
	row.Participants = len(records)
	names := make([]string, 0, len(records))
	for _, rec := range records {
		if rec.Online {
			row.Online++
		}
		names = append(names, rec.Nickname)
	}
	row.Members = strings.Join(names, ", ")
	return row
}
