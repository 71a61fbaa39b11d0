package models

// ResolvedVideo is a search hit promoted into the final output of a resolution request.
type ResolvedVideo struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	ThumbnailURL string `json:"thumbnail"`
	ChannelName  string `json:"channel"`
}

// FoundSong is the subset of a [ResolvedVideo] stored with a history record.
type FoundSong struct {
	VideoID    string `json:"videoId"`
	VideoTitle string `json:"videoTitle"`
}

// FoundSongs projects videos into history entries, preserving order.
func FoundSongs(videos []ResolvedVideo) []FoundSong {
	songs := make([]FoundSong, 0, len(videos))
	for _, v := range videos {
		songs = append(songs, FoundSong{VideoID: v.ID, VideoTitle: v.Title})
	}
	return songs
}

// VideoIDs returns the IDs of videos in order.
func VideoIDs(videos []ResolvedVideo) []string {
	ids := make([]string, 0, len(videos))
	for _, v := range videos {
		ids = append(ids, v.ID)
	}
	return ids
}
