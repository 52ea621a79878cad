package jobs

import (
	"fmt"

	"github.com/AnshuRajbanshi029/Simple-downloader/internal/downloader"
	"github.com/AnshuRajbanshi029/Simple-downloader/internal/models"
)

// Overall progress bands. The first transfer fills 0-85, a second
// (audio for a merged video) fills 85-95, post processing sits at 95-99.
const (
	firstPhaseEnd  = 85
	secondPhaseEnd = 95
	mergeStarted   = 95
	mergeFinished  = 99
)

// transferProgress maps a byte count inside a transfer phase onto the
// overall 0-100 scale. ok is false when the total size is unknown.
func transferProgress(phase int, done, total int64) (progress int, ok bool) {
	if total <= 0 {
		return 0, false
	}
	frac := float64(done) / float64(total)
	frac = min(max(frac, 0), 1)

	if phase <= 1 {
		return int(frac * firstPhaseEnd), true
	}
	return firstPhaseEnd + int(frac*(secondPhaseEnd-firstPhaseEnd)), true
}

// progressHooks feeds engine callbacks into the registry for one task.
func progressHooks(reg *Registry, taskID string, kind models.Kind) downloader.Hooks {
	return downloader.Hooks{
		Transfer: func(phase int, done, total int64) {
			p, ok := transferProgress(phase, done, total)
			if !ok {
				return
			}
			reg.SetStage(taskID, models.StatusDownloading, p, transferMessage(kind, phase, p))
		},
		PostProcess: func(finished bool) {
			if finished {
				reg.SetStage(taskID, models.StatusMerging, mergeFinished, "Finalizing file...")
				return
			}
			msg := "Merging video and audio..."
			if kind != models.KindVideo {
				msg = "Converting audio..."
			}
			reg.SetStage(taskID, models.StatusMerging, mergeStarted, msg)
		},
	}
}

func transferMessage(kind models.Kind, phase, progress int) string {
	what := "video"
	switch {
	case kind != models.KindVideo:
		what = "audio"
	case phase > 1:
		what = "audio track"
	}
	return fmt.Sprintf("Downloading %s... %d%%", what, progress)
}
