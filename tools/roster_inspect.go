package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"chat-sync/domain"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/mama165/sdk-go/database"
	"github.com/olekukonko/tablewriter"
)

func main() {
	dbPath := flag.String("db", database.DefaultPath, "Path to badger DB")
	prefix := flag.String("prefix", "roster:", "Prefix to scan")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	header := color.New(color.BgBlack, color.FgGreen).Render("Cached rosters")
	fmt.Println(header)
	table.SetHeader([]string{"Key", "Room", "Participants", "Online", "Members"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			key := string(item.Key())

			err := item.Value(func(v []byte) error {
				var records []domain.ParticipantRecord
				if err := json.Unmarshal(v, &records); err != nil {
					// Au lieu de stopper tout le script, on log l'erreur et on continue
					fmt.Printf("Error unmarshaling key %s: %v\n", key, err)
					return nil
				}

				room := "-"
				if parts := strings.Split(key, ":"); len(parts) >= 2 {
					room = parts[1]
				}

				online := 0
				names := make([]string, 0, len(records))
				for _, rec := range records {
					if rec.Online {
						online++
					}
					names = append(names, rec.Nickname)
				}

				table.Append([]string{
					key,
					room,
					fmt.Sprintf("%d", len(records)),
					fmt.Sprintf("%d", online),
					strings.Join(names, ", "),
				})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal("Scan failed: ", err)
	}

	table.Render()
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true).
		WithValueLogFileSize(10 * 1024 * 1024)

	db, err := badger.Open(opts)
	if err != nil && strings.Contains(err.Error(), "Log truncate required") {
		// A write-mode open lets badger truncate the value log first
		repairOpts := badger.DefaultOptions(path).
			WithLogger(nil).WithBypassLockGuard(true)
		return badger.Open(repairOpts)
	}
	return db, err
}
