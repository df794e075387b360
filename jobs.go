package mandelseed

import (
	"github.com/everFinance/mandelseed/schema"
)

func (s *Mandelseed) runJobs() {
	s.scheduler.Every(10).Seconds().SingletonMode().Do(s.updateCacheMetric)
	s.scheduler.Every(1).Minute().SingletonMode().Do(s.updateRenderMetric)

	s.scheduler.StartAsync()
}

func (s *Mandelseed) updateCacheMetric() {
	cacheEntries.Set(float64(s.cache.Len()))
}

func (s *Mandelseed) updateRenderMetric() {
	if s.store == nil {
		return
	}
	recs, err := s.store.LoadRenderRecords(schema.RenderStatusFailed)
	if err != nil {
		log.Error("load failed render records", "err", err)
		return
	}
	failedRenders.Set(float64(len(recs)))
}
