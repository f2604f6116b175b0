package pg

import (
	"context"
	"fmt"
)

// ReferencedURLs returns every rendition URL referenced by a question or an
// answer. Satisfies service.GCStorage.
func (s *Storage) ReferencedURLs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT u.url
		FROM (
			SELECT attachments FROM questions
			UNION ALL
			SELECT attachments FROM answers
		) t
		CROSS JOIN LATERAL jsonb_array_elements(t.attachments) AS a(item)
		CROSS JOIN LATERAL (VALUES
			(a.item->>'originalUrl'),
			(a.item->>'fullImageUrl'),
			(a.item->>'thumbnailUrl')
		) AS u(url)
		WHERE u.url IS NOT NULL AND u.url <> ''`)
	if err != nil {
		return nil, fmt.Errorf("failed to collect referenced urls: %w", err)
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("failed to scan url: %w", err)
		}
		urls = append(urls, url)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return urls, nil
}
