package sequencer

// IsAudible applies mute and solo: when any track is soloed only soloed
// tracks sound, otherwise every unmuted track does.
func IsAudible(tracks []Track, t Track) bool {
	for _, other := range tracks {
		if other.Solo {
			return t.Solo
		}
	}
	return !t.Mute
}

// TracksOfKind returns the IDs of tracks with kind, in order
func (s *Session) TracksOfKind(kind TrackKind) []string {
	var ids []string
	for _, t := range s.Tracks {
		if t.Kind == kind {
			ids = append(ids, t.ID)
		}
	}
	return ids
}

// AddTrack appends a track; a duplicate ID is ignored by normalization
func (st *Store) AddTrack(t Track) {
	st.Update(func(s *Session) {
		s.Tracks = append(s.Tracks, t)
	})
}
