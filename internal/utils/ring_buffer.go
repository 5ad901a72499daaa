package utils

import "sync"

// RingBuffer: потокобезопасный кольцевой буфер фиксированного размера.
// При добавлении в заполненный буфер самый старый элемент вытесняется.
// Элементы хранятся в порядке поступления: от самого старого к самому новому.
//
//	rb := NewRingBuffer[int](3)
//	rb.Push(1)
//	rb.Push(2)
//	rb.Push(3)
//	rb.Push(4)                // 1 вытеснен
//	fmt.Println(rb.ToSlice()) // [2 3 4]
//	fmt.Println(rb.Newest(2)) // [4 3]
type RingBuffer[T any] struct {
	data  []T
	size  int
	count int
	head  int // индекс самого старого элемента
	tail  int // индекс следующей позиции для записи
	mu    sync.RWMutex
}

// NewRingBuffer создаёт буфер ёмкостью size. При size <= 0 вызывает панику.
func NewRingBuffer[T any](size int) *RingBuffer[T] {
	if size <= 0 {
		panic("ring buffer size must be positive")
	}
	return &RingBuffer[T]{
		data: make([]T, size),
		size: size,
	}
}

// Push добавляет элемент в конец буфера, вытесняя самый старый при переполнении.
func (rb *RingBuffer[T]) Push(item T) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	rb.data[rb.tail] = item
	rb.tail = (rb.tail + 1) % rb.size

	if rb.count < rb.size {
		rb.count++
	} else {
		rb.head = (rb.head + 1) % rb.size
	}
}

// Len возвращает текущее количество элементов, всегда в диапазоне [0, Cap()].
func (rb *RingBuffer[T]) Len() int {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.count
}

// Cap возвращает ёмкость буфера.
func (rb *RingBuffer[T]) Cap() int {
	return rb.size
}

// At возвращает элемент по индексу i, где 0 это самый старый элемент.
// Если индекс вне диапазона [0, Len()), вызывает панику.
func (rb *RingBuffer[T]) At(i int) T {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	if i < 0 || i >= rb.count {
		panic("index out of range")
	}
	return rb.at(i)
}

// ToSlice возвращает копию элементов от самого старого к самому новому.
func (rb *RingBuffer[T]) ToSlice() []T {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	result := make([]T, rb.count)
	for i := 0; i < rb.count; i++ {
		result[i] = rb.at(i)
	}
	return result
}

// Newest возвращает не более n последних элементов, начиная с самого нового.
// При n <= 0 возвращаются все элементы.
func (rb *RingBuffer[T]) Newest(n int) []T {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	if n <= 0 || n > rb.count {
		n = rb.count
	}
	result := make([]T, n)
	for i := 0; i < n; i++ {
		result[i] = rb.at(rb.count - 1 - i)
	}
	return result
}

// at читает элемент без блокировки; вызывающий держит mu.
func (rb *RingBuffer[T]) at(i int) T {
	return rb.data[(rb.head+i)%rb.size]
}
