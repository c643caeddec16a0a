package httpapi

import (
	"fmt"
	"time"

	"github.com/ssemyonovs/cloudvault/internal/server/models"
)

type userResponse struct {
	ID            int64     `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	IsAdmin       bool      `json:"is_admin"`
	CreatedAt     time.Time `json:"created_at"`
	FilesCount    int64     `json:"files_count"`
	TotalFileSize int64     `json:"total_file_size"`
}

func newUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		IsAdmin:       u.IsAdmin,
		CreatedAt:     u.CreatedAt,
		FilesCount:    u.FilesCount,
		TotalFileSize: u.TotalFileSize,
	}
}

func newUserResponses(users []*models.User) []userResponse {
	result := make([]userResponse, 0, len(users))
	for _, u := range users {
		result = append(result, newUserResponse(u))
	}
	return result
}

type fileResponse struct {
	ID           int64      `json:"id"`
	OwnerID      int64      `json:"owner_id"`
	OriginalName string     `json:"original_name"`
	Size         int64      `json:"size"`
	UploadDate   time.Time  `json:"upload_date"`
	LastDownload *time.Time `json:"last_download"`
	Comment      string     `json:"comment"`
	ShareToken   string     `json:"share_token"`
	DownloadURL  string     `json:"download_url"`
	ShareURL     string     `json:"share_url"`
}

func newFileResponse(f *models.File) fileResponse {
	resp := fileResponse{
		ID:           f.ID,
		OwnerID:      f.OwnerID,
		OriginalName: f.OriginalName,
		Size:         f.Size,
		UploadDate:   f.UploadedAt,
		Comment:      f.Comment,
		ShareToken:   f.ShareToken,
		DownloadURL:  fmt.Sprintf("/files/%d/download", f.ID),
		ShareURL:     "/share/" + f.ShareToken,
	}
	if f.LastDownload.Valid {
		t := f.LastDownload.Time
		resp.LastDownload = &t
	}
	return resp
}

func newFileResponses(files []*models.File) []fileResponse {
	result := make([]fileResponse, 0, len(files))
	for _, f := range files {
		result = append(result, newFileResponse(f))
	}
	return result
}

// shareInfoResponse is the public view of a shared file. It deliberately
// omits the owner id and the token itself.
type shareInfoResponse struct {
	OriginalName string     `json:"original_name"`
	Size         int64      `json:"size"`
	UploadDate   time.Time  `json:"upload_date"`
	LastDownload *time.Time `json:"last_download"`
	Comment      string     `json:"comment"`
}

func newShareInfoResponse(f *models.File) shareInfoResponse {
	resp := shareInfoResponse{
		OriginalName: f.OriginalName,
		Size:         f.Size,
		UploadDate:   f.UploadedAt,
		Comment:      f.Comment,
	}
	if f.LastDownload.Valid {
		t := f.LastDownload.Time
		resp.LastDownload = &t
	}
	return resp
}

type tokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
