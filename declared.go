package filesniff

import (
	"mime"
	"strings"
)

// Common MIME types
const (
	MIMETypeTextPlain       = "text/plain"
	MIMETypeApplicationJSON = "application/json"
	MIMETypeApplicationXML  = "application/xml"
	MIMETypeImageJPEG       = "image/jpeg"
	MIMETypeImagePNG        = "image/png"
	MIMETypeImageGIF        = "image/gif"
	MIMETypeImageBMP        = "image/bmp"
	MIMETypeAudioMP3        = "audio/mpeg"
	MIMETypeVideoMP4        = "video/mp4"
	MIMETypeApplicationPDF  = "application/pdf"
	MIMETypeApplicationZip  = "application/zip"
	MIMETypeOctetStream     = "application/octet-stream"
)

// extensionToMIME is consulted before the platform MIME table so the
// declared type is stable across machines for the common cases.
var extensionToMIME = map[string]string{
	".txt":  MIMETypeTextPlain,
	".json": MIMETypeApplicationJSON,
	".xml":  MIMETypeApplicationXML,
	".jpg":  MIMETypeImageJPEG,
	".jpeg": MIMETypeImageJPEG,
	".png":  MIMETypeImagePNG,
	".gif":  MIMETypeImageGIF,
	".bmp":  MIMETypeImageBMP,
	".mp3":  MIMETypeAudioMP3,
	".mp4":  MIMETypeVideoMP4,
	".pdf":  MIMETypeApplicationPDF,
	".zip":  MIMETypeApplicationZip,
	".rar":  "application/x-rar-compressed",
	".7z":   "application/x-7z-compressed",
	".gz":   "application/gzip",
	".tar":  "application/x-tar",
	".exe":  "application/x-msdownload",
	".dll":  "application/x-msdownload",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xls":  "application/vnd.ms-excel",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".wav":  "audio/wav",
	".avi":  "video/x-msvideo",
	".webp": "image/webp",
}

// DeclaredMIME returns the MIME type a file claims through its extension.
// ext must be lowercased with its leading dot. Returns "" when the
// extension is empty or unknown.
func DeclaredMIME(ext string) string {
	if ext == "" {
		return ""
	}
	if contentType, ok := extensionToMIME[ext]; ok {
		return contentType
	}
	if contentType := mime.TypeByExtension(ext); contentType != "" {
		if idx := strings.Index(contentType, ";"); idx != -1 {
			contentType = strings.TrimSpace(contentType[:idx])
		}
		return contentType
	}
	return ""
}

// MIMECategory returns a coarse category for a MIME type: image, audio,
// video, text, archive, document, executable or binary.
func MIMECategory(contentType string) string {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return "image"
	case strings.HasPrefix(contentType, "audio/"):
		return "audio"
	case strings.HasPrefix(contentType, "video/"):
		return "video"
	case strings.HasPrefix(contentType, "text/"),
		contentType == MIMETypeApplicationJSON,
		contentType == MIMETypeApplicationXML:
		return "text"
	case contentType == MIMETypeApplicationZip,
		contentType == "application/gzip",
		contentType == "application/x-tar",
		contentType == "application/x-7z-compressed",
		contentType == "application/x-rar-compressed",
		contentType == "application/x-riff":
		return "archive"
	case contentType == MIMETypeApplicationPDF,
		contentType == "application/msword",
		strings.HasPrefix(contentType, "application/vnd.openxmlformats-officedocument"),
		strings.HasPrefix(contentType, "application/vnd.ms-"):
		return "document"
	case contentType == "application/x-msdownload",
		contentType == "application/vnd.microsoft.portable-executable",
		contentType == "application/x-executable",
		contentType == "application/x-elf":
		return "executable"
	default:
		return "binary"
	}
}
