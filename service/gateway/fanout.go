package gateway

type fanoutJob struct {
	conns   []*Client
	payload []byte
}

// Fanout pushes one payload to many send queues through a small worker
// pool. Delivery is independent per connection: a full queue means that
// frame is dropped for that client only, never stalling the rest.
type Fanout struct {
	jobs chan fanoutJob
}

func NewFanout(workers, queue int) *Fanout {
	f := &Fanout{jobs: make(chan fanoutJob, queue)}
	for i := 0; i < workers; i++ {
		go func() {
			for job := range f.jobs {
				for _, c := range job.conns {
					// Slow or closed client: frame dropped for that client
					// only; REST re-fetch recovers.
					_ = c.TrySend(job.payload)
				}
			}
		}()
	}
	return f
}

func (f *Fanout) Broadcast(conns []*Client, payload []byte) {
	if len(conns) == 0 || len(payload) == 0 {
		return
	}
	f.jobs <- fanoutJob{conns: conns, payload: payload}
}

func (f *Fanout) Close() { close(f.jobs) }
