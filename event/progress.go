package event

import "github.com/shopspring/decimal"

// ProgressInfo is a typed view of a Progress payload.
type ProgressInfo struct {
	Request      any
	Handle       any
	DownloadSize int64
	Downloaded   int64
	UploadSize   int64
	Uploaded     int64
}

// ProgressFrom extracts the counters of a Progress payload. It reports false
// when any counter is missing or is not an int64.
func ProgressFrom(p Payload) (ProgressInfo, bool) {
	var (
		info ProgressInfo
		ok   bool
	)
	if info.DownloadSize, ok = p[KeyDownloadSize].(int64); !ok {
		return ProgressInfo{}, false
	}
	if info.Downloaded, ok = p[KeyDownloaded].(int64); !ok {
		return ProgressInfo{}, false
	}
	if info.UploadSize, ok = p[KeyUploadSize].(int64); !ok {
		return ProgressInfo{}, false
	}
	if info.Uploaded, ok = p[KeyUploaded].(int64); !ok {
		return ProgressInfo{}, false
	}
	info.Request = p[KeyRequest]
	info.Handle = p[KeyHandle]
	return info, true
}

// DownloadRatio returns Downloaded/DownloadSize clamped to [0, 1].
// An unknown total (zero) yields zero.
func (p ProgressInfo) DownloadRatio() decimal.Decimal {
	return ratio(p.Downloaded, p.DownloadSize)
}

// UploadRatio returns Uploaded/UploadSize clamped to [0, 1].
// An unknown total (zero) yields zero.
func (p ProgressInfo) UploadRatio() decimal.Decimal {
	return ratio(p.Uploaded, p.UploadSize)
}

func ratio(done, total int64) decimal.Decimal {
	if total <= 0 || done <= 0 {
		return decimal.Zero
	}
	if done >= total {
		return decimal.NewFromInt(1)
	}
	return decimal.NewFromInt(done).DivRound(decimal.NewFromInt(total), 4)
}
