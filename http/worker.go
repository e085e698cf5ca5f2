package http

import (
	"net"
	"sync"
)

// WorkerPool hands accepted connections to a fixed number of goroutines.
// A connection is owned by exactly one worker until its handler returns.
type WorkerPool struct {
	conns chan net.Conn
	wg    sync.WaitGroup
}

func NewWorkerPool(size int, serve func(conn net.Conn)) *WorkerPool {
	if size < 1 {
		size = 1
	}

	wp := &WorkerPool{
		conns: make(chan net.Conn, size),
	}
	wp.wg.Add(size)
	for range size {
		go func() {
			defer wp.wg.Done()
			for conn := range wp.conns {
				serve(conn)
			}
		}()
	}

	return wp
}

// Dispatch blocks while every worker is busy and the queue is full.
func (wp *WorkerPool) Dispatch(conn net.Conn) {
	wp.conns <- conn
}

// Close stops accepting work and waits for queued connections to finish.
func (wp *WorkerPool) Close() {
	close(wp.conns)
	wp.wg.Wait()
}
