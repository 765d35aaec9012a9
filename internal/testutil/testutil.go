package testutil

import (
	"fmt"
	"math/rand"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/johnny-morrice/pathtransport/log"
)

// RandKey includes the characters a store path reserves.
func RandKey(rand *rand.Rand, min, max int) string {
	return RandStr(rand, ALPHABET+DIGITS+RESERVED+"% ", min, max)
}

func RandStr(rand *rand.Rand, elements string, min, max int) string {
	count := rand.Intn(max - min)
	count += min
	parts := make([]string, count)

	for i := 0; i < count; i++ {
		index := rand.Intn(len(elements))
		b := elements[index]
		parts[i] = string([]byte{b})
	}

	return strings.Join(parts, "")
}

func AssertNil(t *testing.T, x interface{}) {
	t.Helper()
	Assert(t, fmt.Sprintf("Expected nil value but received: %v", x), isNil(x))
}

func AssertNonNil(t *testing.T, x interface{}) {
	t.Helper()
	Assert(t, "Expected non nil value", !isNil(x))
}

func Assert(t *testing.T, message string, isOk bool) {
	t.Helper()
	if !isOk {
		t.Error(message)
	}
}

func AssertEquals(t *testing.T, message string, expected, actual interface{}) {
	t.Helper()
	same := reflect.DeepEqual(expected, actual)

	if !same {
		expectedType := reflect.TypeOf(expected)
		actualType := reflect.TypeOf(actual)
		t.Errorf("%s: expected '%v' (%v) but received '%v' (%v)", message, expected, expectedType, actual, actualType)
	}
}

func AssertLenEquals(t *testing.T, expected int, hasLen interface{}) {
	t.Helper()
	value := reflect.ValueOf(hasLen)
	actual := value.Len()

	if expected != actual {
		t.Errorf("Expected len %v but received %v", expected, actual)
	}
}

func WaitGroupTimeout(t *testing.T, wg *sync.WaitGroup, timeout time.Duration) {
	t.Helper()
	done := make(chan struct{})

	go func() {
		wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
	case <-timer.C:
		t.Fatalf("Timeout after %v waiting for WaitGroup", timeout)
	}
}

func isNil(x interface{}) bool {
	if x == nil {
		return true
	}

	value := reflect.ValueOf(x)
	switch value.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Ptr, reflect.Slice:
		return value.IsNil()
	}

	return false
}

const ALPHABET = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
const DIGITS = "0123456789"
const RESERVED = "/$#.][-_"

type randGen struct {
	rand *rand.Rand
	sync.Mutex
}

var __rand randGen

func Rand() *rand.Rand {
	__rand.Lock()
	if __rand.rand == nil {
		seed := time.Now().UnixNano()
		src := rand.NewSource(seed)
		__rand.rand = rand.New(src)
	}
	__rand.Unlock()

	return __rand.rand
}

// Logging on in test mode!
func init() {
	log.SetLevel(log.LOG_DEBUG)
}
