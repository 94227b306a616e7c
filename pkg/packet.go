package fadc

import (
	"fmt"
)

// DecodePacket decodes the packet starting at offset in buf. It does not
// retain buf; the waveforms of the returned record are freshly allocated.
func DecodePacket(buf []byte, offset int) (EventRecord, error) {
	var event EventRecord
	if offset < 0 || offset > len(buf) {
		return event, &DecodeError{Offset: offset, Available: 0, Err: ErrTruncated}
	}
	p := buf[offset:]

	// The length word itself spans the first 16 bytes
	if len(p) < WordBytes*len(fieldDataLength.lanes) {
		return event, &DecodeError{Offset: offset, Available: len(p), Err: ErrTruncated}
	}
	dataLength := uint32(fieldDataLength.read(p))
	if dataLength < MinDataLength || dataLength > MaxDataLength {
		return event, &DecodeError{Offset: offset, DataLength: dataLength, Available: len(p), Err: ErrInvalidLength}
	}
	nSamples := numSamples(dataLength)
	if nSamples < 0 {
		return event, &DecodeError{Offset: offset, DataLength: dataLength, Available: len(p), Err: ErrInvalidLength}
	}
	packetBytes := int(dataLength) * WordBytes
	if len(p) < packetBytes {
		return event, &DecodeError{Offset: offset, DataLength: dataLength, Available: len(p), Err: ErrTruncated}
	}

	event.DataLength = dataLength
	event.RunNumber = uint16(fieldRunNumber.read(p))
	event.TriggerType = uint8(fieldTriggerType.read(p))
	event.TriggerNumber = uint32(fieldTriggerNumber.read(p))
	event.TriggerTime = fieldTriggerTime.read(p)
	event.ModuleID = uint8(fieldModuleID.read(p))
	event.LocalTNum = uint32(fieldLocalTNum.read(p))
	event.TriggerPattern = uint32(fieldTriggerPattern.read(p))
	event.LatchTime = fieldLatchTime.read(p)

	decodeWaveforms(p[HeaderBytes:packetBytes], nSamples, &event.Waveforms)
	return event, nil
}

// decodeWaveforms splits the sample groups into the four channels. Each 8-byte
// group holds the low bytes of channels 0-3 followed by their high bytes.
func decodeWaveforms(data []byte, nSamples int, waveforms *[NumChannels][]uint16) {
	samples := make([]uint16, NumChannels*nSamples)
	for ch := 0; ch < NumChannels; ch++ {
		waveforms[ch] = samples[ch*nSamples : (ch+1)*nSamples : (ch+1)*nSamples]
	}
	for i := 0; i < nSamples; i++ {
		group := data[i*SampleGroupBytes : (i+1)*SampleGroupBytes]
		waveforms[0][i] = uint16(group[0]) | uint16(group[4])<<8
		waveforms[1][i] = uint16(group[1]) | uint16(group[5])<<8
		waveforms[2][i] = uint16(group[2]) | uint16(group[6])<<8
		waveforms[3][i] = uint16(group[3]) | uint16(group[7])<<8
	}
}

// PacketBytes returns the number of bytes a packet with the given data length
// occupies in the stream.
func PacketBytes(dataLength uint32) int {
	return int(dataLength) * WordBytes
}

// EncodePacket builds the wire representation of an event. DataLength is
// derived from the waveforms and the value stored in event is ignored.
func EncodePacket(event EventRecord) ([]byte, error) {
	nSamples := len(event.Waveforms[0])
	for ch := 1; ch < NumChannels; ch++ {
		if len(event.Waveforms[ch]) != nSamples {
			return nil, fmt.Errorf("channel %d has %d samples, channel 0 has %d", ch, len(event.Waveforms[ch]), nSamples)
		}
	}
	dataLength := uint32((HeaderBytes + nSamples*SampleGroupBytes) / WordBytes)
	if dataLength > MaxDataLength {
		return nil, fmt.Errorf("%d samples do not fit in a packet: %w", nSamples, ErrInvalidLength)
	}
	triggerTime, ok := SplitTimestamp(event.TriggerTime)
	if !ok || triggerTime.Coarse > fieldTriggerTime.coarse.maxValue() {
		return nil, fmt.Errorf("trigger time %d cannot be encoded", event.TriggerTime)
	}
	latchTime, ok := SplitTimestamp(event.LatchTime)
	if !ok || latchTime.Coarse > fieldLatchTime.coarse.maxValue() {
		return nil, fmt.Errorf("latch time %d cannot be encoded", event.LatchTime)
	}

	p := make([]byte, PacketBytes(dataLength))
	fieldDataLength.write(p, uint64(dataLength))
	fieldRunNumber.write(p, uint64(event.RunNumber))
	fieldTriggerType.write(p, uint64(event.TriggerType))
	fieldTriggerNumber.write(p, uint64(event.TriggerNumber))
	fieldTriggerTime.write(p, triggerTime)
	fieldModuleID.write(p, uint64(event.ModuleID))
	fieldLocalTNum.write(p, uint64(event.LocalTNum))
	fieldTriggerPattern.write(p, uint64(event.TriggerPattern))
	fieldLatchTime.write(p, latchTime)

	for i := 0; i < nSamples; i++ {
		group := p[HeaderBytes+i*SampleGroupBytes:]
		for ch := 0; ch < NumChannels; ch++ {
			sample := event.Waveforms[ch][i]
			group[ch] = byte(sample)
			group[ch+4] = byte(sample >> 8)
		}
	}
	return p, nil
}
