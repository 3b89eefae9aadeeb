// Package ppg estimates heart rate from fingertip photoplethysmography: the
// tiny brightness changes a camera sees as blood pulses under the skin.
//
// A frame producer reduces each video frame to one brightness value (for
// example the mean of the red channel) and calls AddSample. Estimate then
// runs the pipeline over the buffered history:
//
//  1. The QualityGate rejects buffers that are too short or too flat.
//  2. The trailing estimation window is smoothed by an exponential low-pass.
//  3. Local maxima above mean + k*stddev are taken as beats.
//  4. The mean beat spacing is converted to beats per minute.
//  5. Rates outside the configured bounds are rejected.
//
// Every rejection is an expected outcome of noisy input and is returned as
// a Result with a display message, never as an error. Errors are reserved
// for invalid samples and invalid configuration.
//
// Basic usage:
//
//	est, err := ppg.New(config.Default())
//	if err != nil {
//		return err
//	}
//	for v := range frames {
//		if err := est.AddSample(v); err != nil {
//			return err
//		}
//	}
//	res := est.Estimate()
//	if bpm, ok := res.BPM(); ok {
//		fmt.Println(bpm)
//	} else {
//		fmt.Println(res.Message())
//	}
package ppg
