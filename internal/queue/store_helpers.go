package queue

import (
	"database/sql"
	"errors"
	"time"
)

const jobColumns = "id, owner_id, input_path, status, progress, error_detail, extracted_audio, transcript, translated_text, synthesized_audio, lipsynced_video, final_video, worker_id, last_heartbeat, created_at, updated_at"

// timeLayout is fixed width so stored timestamps compare correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func nowString() string {
	return formatTime(time.Now())
}

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		job              Job
		ownerID          sql.NullString
		statusStr        string
		errorDetail      sql.NullString
		extractedAudio   sql.NullString
		transcript       sql.NullString
		translatedText   sql.NullString
		synthesizedAudio sql.NullString
		lipSyncedVideo   sql.NullString
		finalVideo       sql.NullString
		workerID         sql.NullString
		heartbeatRaw     sql.NullString
		createdRaw       string
		updatedRaw       string
	)
	if err := scanner.Scan(
		&job.ID,
		&ownerID,
		&job.InputPath,
		&statusStr,
		&job.Progress,
		&errorDetail,
		&extractedAudio,
		&transcript,
		&translatedText,
		&synthesizedAudio,
		&lipSyncedVideo,
		&finalVideo,
		&workerID,
		&heartbeatRaw,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	job.OwnerID = ownerID.String
	job.Status = Status(statusStr)
	job.ErrorDetail = errorDetail.String
	job.WorkerID = workerID.String
	job.Artifacts = Artifacts{
		ExtractedAudio:   extractedAudio.String,
		Transcript:       transcript.String,
		TranslatedText:   translatedText.String,
		SynthesizedAudio: synthesizedAudio.String,
		LipSyncedVideo:   lipSyncedVideo.String,
		FinalVideo:       finalVideo.String,
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		job.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		job.UpdatedAt = updated
	}
	if heartbeatRaw.Valid {
		if heartbeat, err := parseTimeString(heartbeatRaw.String); err == nil {
			job.LastHeartbeat = &heartbeat
		}
	}
	job.Stages = make(map[Stage]StageState)
	return &job, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(timeLayout, value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339Nano, value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
