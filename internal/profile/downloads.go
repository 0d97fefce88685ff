package profile

import "fmt"

// Download is one pending voice-sample fetch request.
type Download struct {
	ID        int64
	Username  string
	Filename  string
	URL       string
	Processed bool
}

// EnqueueDownload records a voice-sample download request. Downloads are
// pure database state with no cache; the voicefetch worker polls them.
func (s *Store) EnqueueDownload(username, filename, url string) error {
	_, err := s.db.Exec(
		"INSERT INTO voice_download_queue (requested_by_username, requested_filename, youtube_url) VALUES (?, ?, ?)",
		username, filename, url,
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue voice download: %w", err)
	}
	return nil
}

// PendingDownloads returns all unprocessed download requests, oldest first.
func (s *Store) PendingDownloads() ([]Download, error) {
	rows, err := s.db.Query(
		"SELECT id, requested_by_username, requested_filename, youtube_url FROM voice_download_queue WHERE processed = 0 ORDER BY id",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to read download queue: %w", err)
	}
	defer rows.Close()

	var pending []Download
	for rows.Next() {
		var d Download
		if err := rows.Scan(&d.ID, &d.Username, &d.Filename, &d.URL); err != nil {
			return nil, fmt.Errorf("failed to scan download row: %w", err)
		}
		pending = append(pending, d)
	}
	return pending, rows.Err()
}

// MarkProcessed flags a download request as handled.
func (s *Store) MarkProcessed(id int64) error {
	_, err := s.db.Exec("UPDATE voice_download_queue SET processed = 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to mark download %d processed: %w", id, err)
	}
	return nil
}
