package model

// ChunkMeta travels with every stored chunk so a retrieval hit can always
// be traced back to its video.
type ChunkMeta struct {
	VideoTitle string `json:"video_title"`
	Uploader   string `json:"uploader"`
	ChunkIndex int    `json:"chunk_index"`
}
